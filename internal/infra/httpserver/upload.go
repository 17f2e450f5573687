package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gabriel-vasile/mimetype"

	domai "github.com/bryanwahyu/health-companion/internal/domain/ai"
	"github.com/bryanwahyu/health-companion/internal/domain/reports"
	"github.com/bryanwahyu/health-companion/internal/middleware"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domai.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// readReport turns the request body into an AnalysisRequest. The media type
// of an uploaded file is sniffed from its bytes; any declared type is ignored.
func (r *Router) readReport(req *http.Request) (reports.AnalysisRequest, error) {
	ct, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))

	var (
		text string
		data []byte
		err  error
	)
	switch ct {
	case "multipart/form-data":
		text, data, err = r.readMultipart(req)
	case "application/json", "":
		text, data, err = readJSONReport(req.Body)
	default:
		return reports.AnalysisRequest{}, invalid("unsupported content type %q", ct)
	}
	if err != nil {
		return reports.AnalysisRequest{}, err
	}

	var areq reports.AnalysisRequest
	if data != nil {
		if len(data) == 0 {
			return areq, invalid("uploaded file is empty")
		}
		mediaType := mimetype.Detect(data).String()
		if err := middleware.ValidateReportType(mediaType); err != nil {
			return areq, invalid("%v", err)
		}
		areq.File = &reports.File{MediaType: mediaType, Data: data}
	}
	areq.Text = middleware.SanitizeString(text)
	return areq, areq.Validate()
}

func (r *Router) readMultipart(req *http.Request) (string, []byte, error) {
	if err := req.ParseMultipartForm(r.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, err
		}
		return "", nil, invalid("invalid multipart body: %v", err)
	}
	// parts larger than the memory limit spill to temp files
	defer req.MultipartForm.RemoveAll()
	text := req.FormValue("text")

	f, _, err := req.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return text, nil, nil
	}
	if err != nil {
		return "", nil, invalid("invalid file field: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if data == nil {
		data = []byte{}
	}
	return text, data, nil
}

func readJSONReport(body io.Reader) (string, []byte, error) {
	var payload struct {
		Text string `json:"text"`
		File *struct {
			MimeType string `json:"mimeType"`
			Data     []byte `json:"data"` // base64
		} `json:"file"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, err
		}
		return "", nil, invalid("invalid JSON body: %v", err)
	}
	if payload.File == nil {
		return payload.Text, nil, nil
	}
	data := payload.File.Data
	if data == nil {
		data = []byte{}
	}
	return payload.Text, data, nil
}
