// Package extract derives structured identity fields (full name, date of
// birth) from ID document images. Two extractors implement the same
// contract: a remote multimodal text-generation service and a local
// Tesseract pipeline. Callers treat both as fallible black boxes.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Fields is the best-effort structured guess produced for one image.
// Both values are unconstrained free text as returned by the extractor;
// no format validation is applied beyond requiring both to be non-empty.
type Fields struct {
	FullName string `json:"fullName"`
	DOB      string `json:"dob"`
}

// Extractor turns raw image bytes into identity fields or fails.
// No retry happens inside an extractor; retry policy belongs to callers.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (Fields, error)
}

// ErrNoFields is returned when the extractor produced output but no usable
// fullName/dob pair could be recovered from it.
var ErrNoFields = errors.New("no identity fields detected")

// ErrNoText is returned when the extraction service replied without any text.
var ErrNoText = errors.New("no text returned from extraction service")

// decodeFields parses a service reply as a Fields JSON object, stripping any
// markdown code-fence wrapping first. Both keys must be present and
// non-empty; a partial object is an extraction failure, never a default.
func decodeFields(text string) (Fields, error) {
	cleaned := stripCodeFences(text)
	var f Fields
	if err := json.Unmarshal([]byte(cleaned), &f); err != nil {
		return Fields{}, fmt.Errorf("parse extraction reply: %w", err)
	}
	if strings.TrimSpace(f.FullName) == "" || strings.TrimSpace(f.DOB) == "" {
		return Fields{}, ErrNoFields
	}
	f.FullName = strings.TrimSpace(f.FullName)
	f.DOB = strings.TrimSpace(f.DOB)
	return f, nil
}

// stripCodeFences removes a surrounding ```json ... ``` (or plain ```) block
// that text-generation models tend to wrap JSON replies in.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
