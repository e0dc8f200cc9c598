package dto

import (
	"encoding/json"
	"time"
)

type BeginInterviewRequest struct {
	SessionKey string `json:"session_key" validate:"required,max=128"`
	Flow       string `json:"flow,omitempty"` // Defaults to the configured welcome flow
}

type SubmitAnswerRequest struct {
	Qid string `json:"qid" validate:"required"`
	// Value stays raw until the question's own validator interprets it:
	// text questions expect a string, number questions a number or numeric
	// string, selects a string or array of strings.
	Value json.RawMessage `json:"value"`
}

type OptionView struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

type QuestionView struct {
	Qid      string       `json:"qid"`
	Order    string       `json:"order"`
	Label    string       `json:"label"`
	Help     string       `json:"help,omitempty"`
	Type     string       `json:"type"`
	Required bool         `json:"required"`
	MaxLen   int          `json:"max_len,omitempty"`
	Options  []OptionView `json:"options,omitempty"`
	Optional bool         `json:"optional"` // Downgraded by a rule for this session
}

// InterviewStateResponse is the chat gateway's full picture after any
// operation: where the participant is, what to ask next, and whether the
// interview is over.
type InterviewStateResponse struct {
	SessionKey    string         `json:"session_key"`
	Flow          string         `json:"flow"`
	Completed     bool           `json:"completed"`
	Question      *QuestionView  `json:"question,omitempty"` // nil when completed
	Answered      int            `json:"answered"`
	TotalVisible  int            `json:"total_visible"`
	Answers       map[string]any `json:"answers,omitempty"`
	SchemaVersion string         `json:"schema_version"`
	CreatedAt     time.Time      `json:"created_at"`
}

// AnswerRejectedResponse is the 422 payload when input validation fails.
// The session is untouched; the same question is re-asked.
type AnswerRejectedResponse struct {
	Qid      string        `json:"qid"`
	Message  string        `json:"message"`
	Question *QuestionView `json:"question"`
}

type PublishInterviewCompletedMessage struct {
	SessionKey    string         `json:"session_key"`
	Flow          string         `json:"flow"`
	SchemaVersion string         `json:"schema_version"`
	Answers       map[string]any `json:"answers"`
}
