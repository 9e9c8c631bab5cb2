package domain

import "strings"

// GenerationErrorPrefix marks a failed single-document generation. The AI
// gateway never returns an error for expected service failures; it returns a
// string with this prefix instead, and every caller checks it explicitly.
const GenerationErrorPrefix = "Error:"

// SourceFile is one file submitted to the AI service for documentation.
type SourceFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// GeneratedDoc is one per-file result of a batch generation call.
type GeneratedDoc struct {
	Path          string `json:"path"`
	Documentation string `json:"documentation"`
}

// IsGenerationError reports whether a generated text is the failure sentinel.
func IsGenerationError(text string) bool {
	return strings.HasPrefix(text, GenerationErrorPrefix)
}
