package reports

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/health-companion/internal/domain/ai"
)

// File is an uploaded report held in memory for one submission.
type File struct {
	MediaType string
	Data      []byte
}

// AnalysisRequest carries either report text or one file, never both.
type AnalysisRequest struct {
	Text string
	File *File
}

// TextRequest builds a text-only request.
func TextRequest(text string) AnalysisRequest { return AnalysisRequest{Text: text} }

// FileRequest builds an attachment-only request.
func FileRequest(mediaType string, data []byte) AnalysisRequest {
	return AnalysisRequest{File: &File{MediaType: mediaType, Data: data}}
}

// Validate enforces the union: exactly one of text or file.
func (r AnalysisRequest) Validate() error {
	hasText := strings.TrimSpace(r.Text) != ""
	hasFile := r.File != nil
	switch {
	case !hasText && !hasFile:
		return fmt.Errorf("%w: report text or file is required", ai.ErrInvalidRequest)
	case hasText && hasFile:
		return fmt.Errorf("%w: provide report text or a file, not both", ai.ErrInvalidRequest)
	case hasFile && len(r.File.Data) == 0:
		return fmt.Errorf("%w: uploaded file is empty", ai.ErrInvalidRequest)
	case hasFile && strings.TrimSpace(r.File.MediaType) == "":
		return fmt.Errorf("%w: uploaded file has no media type", ai.ErrInvalidRequest)
	}
	return nil
}
