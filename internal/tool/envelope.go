// Package tool is the stdio transport around the analysis pipeline: it decodes
// one request document, runs one analysis and encodes one response document.
package tool

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/tabsum/internal/analysis"
	"github.com/KaramelBytes/tabsum/internal/table"
)

// Content is one item of a response envelope.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Response is the envelope written for every request, success or failure.
type Response struct {
	Content []Content `json:"content"`
}

// TextResponse wraps text as a single text content item.
func TextResponse(text string) Response {
	return Response{Content: []Content{{Type: "text", Text: text}}}
}

// ErrMissingArgument is returned when the request carries no usable file_path.
var ErrMissingArgument = errors.New("file_path argument is required")

// DecodeError reports an input document that is not valid JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode request: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// Message renders err as the user-facing text carried in the envelope.
func Message(err error) string {
	var (
		uf *table.UnsupportedFormatError
		ae *analysis.Error
		de *DecodeError
	)
	switch {
	case errors.Is(err, ErrMissingArgument):
		return "Error: " + ErrMissingArgument.Error()
	case errors.As(err, &uf):
		return uf.Error()
	case errors.As(err, &ae):
		return fmt.Sprintf("Error analyzing file: %v", ae.Err)
	case errors.As(err, &de):
		return fmt.Sprintf("Error parsing input JSON: %v", de.Err)
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}
