// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package competitor

import (
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/content-engine/pkg/types"
)

// NewSource builds the Source selected by cfg.Source. Progress lines from
// the web source go to log.
func NewSource(cfg types.CompetitorConfig, log io.Writer) (Source, error) {
	switch cfg.Source {
	case "", types.SourceSimulated:
		return SimulatedSource{Count: cfg.Count}, nil
	case types.SourceFixture:
		if cfg.Fixture == "" {
			return nil, errors.New("competitor.fixture is required for the fixture source")
		}
		return FixtureSource{Path: cfg.Fixture}, nil
	case types.SourceWeb:
		var disc Discoverer
		if fd := NewFeedDiscoverer(cfg); fd != nil {
			disc = fd
		}
		if len(cfg.URLs) == 0 && disc == nil {
			return nil, errors.New("web source needs competitor.urls or competitor.feed_url")
		}
		return NewWebSource(cfg, disc, log), nil
	default:
		return nil, fmt.Errorf("unknown competitor source %q (want simulated, fixture, or web)", cfg.Source)
	}
}
