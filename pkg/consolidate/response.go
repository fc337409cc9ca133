package consolidate

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/DrSkyle/balanco/pkg/locator"
)

// Response is what every invocation returns. Body is a JSON document.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Message is the body of every non-success response.
type Message struct {
	Message string `json:"message"`
}

// Result is the body of a successful consolidation.
type Result struct {
	Message          string         `json:"message"`
	RecordsProcessed int            `json:"records_processed"`
	Location         string         `json:"location"`
	SourceFilesCount int            `json:"source_files_count"`
	SkippedResources []locator.Skip `json:"skipped_resources,omitempty"`
	SkippedCells     int            `json:"skipped_cells,omitempty"`
}

func respond(status int, body any) Response {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return Response{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"message":"Critical error: response encoding failed"}`,
		}
	}
	return Response{StatusCode: status, Body: strings.TrimSuffix(buf.String(), "\n")}
}

func message(status int, text string) Response {
	return respond(status, Message{Message: text})
}
