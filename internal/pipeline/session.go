// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"github.com/pdiddy/content-engine/pkg/types"
)

// State is the pipeline position of a session, derived from the artifacts
// it holds.
type State string

const (
	StateEmpty     State = "empty"
	StateAnalyzed  State = "analyzed"
	StateOutlined  State = "outlined"
	StateGenerated State = "generated"
)

// Session is the single aggregate a user interaction works on. The caller
// owns it and passes it to every Orchestrator transition; the orchestrator
// keeps no session state of its own.
type Session struct {
	Keyword string                 `json:"keyword" yaml:"keyword"`
	Brief   types.Brief            `json:"brief" yaml:"brief"`
	Summary *types.AnalysisSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Outline *types.Outline         `json:"outline,omitempty" yaml:"outline,omitempty"`
	Article *types.Article         `json:"article,omitempty" yaml:"article,omitempty"`
}

// NewSession returns an empty session for brief.
func NewSession(brief types.Brief) (*Session, error) {
	if err := brief.Validate(); err != nil {
		return nil, err
	}
	return &Session{Brief: brief}, nil
}

// State reports the furthest stage whose artifact is present.
func (s *Session) State() State {
	switch {
	case s.Article != nil:
		return StateGenerated
	case s.Outline != nil:
		return StateOutlined
	case s.Summary != nil:
		return StateAnalyzed
	default:
		return StateEmpty
	}
}

// Reset discards every artifact and the keyword, keeping the brief.
func (s *Session) Reset() {
	s.Keyword = ""
	s.clearFrom(StateAnalyzed)
}

// clearFrom discards the artifact of stage and every later one.
func (s *Session) clearFrom(stage State) {
	switch stage {
	case StateAnalyzed:
		s.Summary = nil
		fallthrough
	case StateOutlined:
		s.Outline = nil
		fallthrough
	case StateGenerated:
		s.Article = nil
	}
}
