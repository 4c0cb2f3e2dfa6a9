package recorder

import "github.com/rpggio/climbr/internal/domain/session"

// State is the observable view of a Manager. Session is nil when no session
// is being recorded. Values handed to subscribers are deep copies.
type State struct {
	Session     *session.Session
	Loading     bool
	Error       string
	LastSavedID string
}

// HasError reports whether an error awaits dismissal.
func (s State) HasError() bool {
	return s.Error != ""
}

func (s State) clone() State {
	out := s
	if s.Session != nil {
		sess := s.Session.Clone()
		out.Session = &sess
	}
	return out
}
