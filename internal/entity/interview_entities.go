package entity

import (
	"time"

	"github.com/google/uuid"
)

// InterviewSession is one participant's progress through a question flow.
// Answers are keyed by qid and hold the normalized values produced by input
// validation, so re-evaluating rules against them is always safe.
type InterviewSession struct {
	Id            uuid.UUID
	SessionKey    string
	Flow          string
	StepIndex     int
	Answers       map[string]any
	Completed     bool
	SchemaVersion string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// Clone copies the session with its own answer map, so callers can stage
// changes without touching the original until the store accepts them.
func (s *InterviewSession) Clone() *InterviewSession {
	copied := *s
	copied.Answers = make(map[string]any, len(s.Answers))
	for qid, value := range s.Answers {
		copied.Answers[qid] = value
	}
	return &copied
}

// QuestionRow is one persisted sheet row. Rows are stored verbatim; the flow
// loader interprets them on reload.
type QuestionRow struct {
	Id       uuid.UUID
	Flow     string
	OrderKey string
	Qid      string
	Label    string
	Type     string
	Required bool
	MaxLen   int
	Help     string
	Options  string
	Rules    string
}
