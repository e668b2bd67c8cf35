// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import "context"

// Echo is an offline backend that returns the rendered prompt unchanged. It
// lets the pipeline run end to end without network access or credentials.
type Echo struct{}

// Generate returns req.Prompt().
func (Echo) Generate(_ context.Context, req Request) (string, error) {
	return req.Prompt(), nil
}
