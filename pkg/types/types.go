// Package types defines the shared types used across termfix packages.
//
// These types form the lingua franca between the correction engine, the LLM
// refine stage, the cache and the batch driver. They are intentionally
// minimal: each package defines its own domain types, but cross-cutting data
// structures live here to avoid circular imports.
package types

// Stage names the pipeline step that produced a [Correction].
type Stage string

const (
	// StageTargeted is the whole-word fix pass for known generation and OCR
	// artefacts. It runs first.
	StageTargeted Stage = "targeted"

	// StagePattern is the exact dictionary pass driven by the pattern index.
	StagePattern Stage = "pattern"

	// StageFuzzy is the similarity-based proper-name pass.
	StageFuzzy Stage = "fuzzy"

	// StageContext is the context-dependent disambiguation pass.
	StageContext Stage = "context"
)

// Stages lists the correction stages in pipeline order.
func Stages() []Stage {
	return []Stage{StageTargeted, StagePattern, StageFuzzy, StageContext}
}

// Correction records one rewrite applied to a text.
type Correction struct {
	// Original is the replaced text exactly as it appeared in the input.
	Original string `json:"original"`

	// Corrected is the text it was replaced with.
	Corrected string `json:"corrected"`

	// Position is the byte offset of Original in the input text.
	Position int `json:"position"`

	// Stage is the pipeline step that applied the rewrite.
	Stage Stage `json:"stage"`
}

// End returns the byte offset just past Original in the input text.
func (c Correction) End() int {
	return c.Position + len(c.Original)
}

// Message represents a single message in an LLM conversation.
type Message struct {
	// Role is one of "system", "user" or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// ModelCapabilities describes what an LLM model supports.
type ModelCapabilities struct {
	// ContextWindow is the maximum token count for input + output.
	ContextWindow int

	// MaxOutputTokens is the maximum tokens the model can generate in one completion.
	MaxOutputTokens int
}
