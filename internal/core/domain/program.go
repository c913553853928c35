package domain

import "time"

// Field describes one named input or output of a program signature.
type Field struct {
	Name        string `json:"name"        yaml:"name"`
	Type        string `json:"type"        yaml:"type"` // wire type notation, e.g. "str", "list[int]"
	Description string `json:"description" yaml:"description,omitempty"`
}

// Signature declares the typed interface of a program.
type Signature struct {
	Inputs      []Field `json:"inputs"      yaml:"inputs"`
	Outputs     []Field `json:"outputs"     yaml:"outputs"`
	Description string  `json:"description" yaml:"description,omitempty"`
}

// ProgramConfig is the creation request for a program resource.
type ProgramConfig struct {
	// ID is optional; backends generate one when empty.
	ID        string         `json:"id,omitempty"`
	Signature Signature      `json:"signature"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ProgramRecord is the backend-held state of a created program.
type ProgramRecord struct {
	ID              string    `json:"id"`
	Signature       Signature `json:"signature"`
	CreatedAt       time.Time `json:"created_at"`
	InvocationCount int       `json:"invocation_count"`
}

// ExecOptions carries per-execution options. SessionID is opaque here;
// affinity bookkeeping lives outside this module.
type ExecOptions struct {
	SessionID string
	Timeout   time.Duration
}

// Stats is the observability snapshot every backend exposes.
type Stats struct {
	RequestsTotal  int64 `json:"requests_total"`
	Successes      int64 `json:"successes"`
	Failures       int64 `json:"failures"`
	ProgramsActive int64 `json:"programs_active"`
}

// FailureRecord is what the factory hands to the failure journal after
// a call exhausts its retries and fallbacks.
type FailureRecord struct {
	ID        string    `json:"id"`
	Backend   string    `json:"backend"`
	Tier      Tier      `json:"tier"`
	Operation string    `json:"operation"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Attempts  int       `json:"attempts"`
	At        time.Time `json:"at"`
}
