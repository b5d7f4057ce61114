package models

import "time"

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Credentials carries whatever the selected provider needs. Only the field
// matching the provider is consulted.
type Credentials struct {
	OpenAIKey             string
	GoogleCredentialsFile string
}

// TaskRequest is immutable once a run has started; a retry means a new one.
type TaskRequest struct {
	Instruction string
	Provider    Provider
	Credentials Credentials
}

// StepEvent is one action-and-observation record from an automation run.
// Events are append-only and never mutated after creation.
type StepEvent struct {
	Sequence   int       `json:"sequence"`
	Goal       string    `json:"goal"`
	Action     string    `json:"action"`
	Evaluation string    `json:"evaluation"`
	URL        string    `json:"url,omitempty"`
	Screenshot []byte    `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
}

// RunState tracks one task execution. Steps stay ordered by contiguous
// sequence numbers and the slice only ever grows.
type RunState struct {
	Status      Status      `json:"status"`
	Steps       []StepEvent `json:"steps"`
	StartedAt   time.Time   `json:"startedAt"`
	EndedAt     *time.Time  `json:"endedAt,omitempty"`
	FinalAnswer string      `json:"finalAnswer,omitempty"`
	Error       *Error      `json:"error,omitempty"`
}

// Clone copies the state so readers never touch the live step buffer.
// Screenshot bytes are shared; events are never mutated after emission.
func (s RunState) Clone() RunState {
	out := s
	out.Steps = append([]StepEvent(nil), s.Steps...)
	return out
}

// Summary derives the read-only result view. Calling it twice on the same
// terminal state yields identical values.
func (s RunState) Summary() ResultSummary {
	var elapsed time.Duration
	if s.EndedAt != nil {
		elapsed = s.EndedAt.Sub(s.StartedAt)
	}
	return ResultSummary{
		Status:      s.Status,
		Steps:       len(s.Steps),
		Elapsed:     elapsed,
		FinalAnswer: s.FinalAnswer,
		Error:       s.Error,
	}
}

type ResultSummary struct {
	Status      Status        `json:"status"`
	Steps       int           `json:"steps"`
	Elapsed     time.Duration `json:"elapsed"`
	FinalAnswer string        `json:"finalAnswer,omitempty"`
	Error       *Error        `json:"error,omitempty"`
}
