// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package competitor

import (
	"context"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/content-engine/pkg/types"
)

// fixtureFile is the on-disk layout read by FixtureSource.
type fixtureFile struct {
	Competitors []types.CompetitorRecord `yaml:"competitors"`
	Failures    []types.FetchFailure     `yaml:"failures,omitempty"`
}

// FixtureSource reads competitor records from a YAML file:
//
//	competitors:
//	  - title: ...
//	    url: ...
//	    length: 2400
//	    headings: ["H2: ..."]
//	failures:
//	  - url: ...
//	    reason: ...
//
// The keyword is ignored; a fixture describes one fixed competitor set.
type FixtureSource struct {
	Path string
}

// Fetch loads the fixture. Records with a negative length are reported as
// failures rather than aggregated.
func (f FixtureSource) Fetch(_ context.Context, _ string) (FetchResult, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return FetchResult{}, fmt.Errorf("reading fixture %s: %w", f.Path, err)
	}
	var ff fixtureFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return FetchResult{}, fmt.Errorf("parsing fixture %s: %w", f.Path, err)
	}

	res := FetchResult{Failures: ff.Failures}
	for _, r := range ff.Competitors {
		if r.Length < 0 {
			res.Failures = append(res.Failures, types.FetchFailure{URL: r.URL, Reason: fmt.Sprintf("invalid length %d", r.Length)})
			continue
		}
		res.Records = append(res.Records, r)
	}
	return res, nil
}

// Static is an in-memory Source that returns the same result for any keyword.
type Static FetchResult

// Fetch returns the static result.
func (s Static) Fetch(context.Context, string) (FetchResult, error) {
	return FetchResult(s), nil
}
