package session

import "time"

// Outcome is the lifecycle position of a session.
type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomeCaptured   Outcome = "captured"
	OutcomeCompleted  Outcome = "completed"
	OutcomeShared     Outcome = "shared"
	OutcomeAbandoned  Outcome = "abandoned"
)

// Open reports whether the session can still advance.
func (o Outcome) Open() bool {
	return o == OutcomeInProgress || o == OutcomeCaptured || o == OutcomeCompleted
}

// Session is one visitor's pass through the experience.
type Session struct {
	ID          string
	Outcome     Outcome
	StartedAt   time.Time
	CapturedAt  *time.Time
	CompletedAt *time.Time
	SharedAt    *time.Time
	ShareKey    string
}

// Duration is the time from start to the last recorded milestone.
func (s *Session) Duration() time.Duration {
	last := s.StartedAt
	for _, ts := range []*time.Time{s.CapturedAt, s.CompletedAt, s.SharedAt} {
		if ts != nil && ts.After(last) {
			last = *ts
		}
	}
	return last.Sub(s.StartedAt)
}
