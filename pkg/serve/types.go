package serve

import (
	"encoding/json"

	"github.com/praetorian-inc/cobprep/pkg/scanner"
)

// Request types understood by the server.
const (
	TypePreprocess      = "preprocess"
	TypePreprocessBatch = "preprocess_batch"
	TypeLocate          = "locate"
	TypeStats           = "stats"
	TypeClose           = "close"
)

// Response-only types.
const (
	TypeReady   = "ready"
	TypeDecode  = "decode"
	TypeUnknown = "unknown"
)

// Request is one NDJSON line read by the server. ID is echoed back so
// clients can pipeline requests.
type Request struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Response is one NDJSON line written by the server.
type Response struct {
	ID      string          `json:"id,omitempty"`
	Success bool            `json:"success"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// PreprocessPayload carries one source text. Format overrides the initial
// reference format for this request only.
type PreprocessPayload = scanner.ContentItem

// PreprocessBatchPayload carries several source texts.
type PreprocessBatchPayload struct {
	Items []scanner.ContentItem `json:"items"`
}

// LocatePayload names a copybook the way a COPY statement does.
type LocatePayload struct {
	Name    string `json:"name"`
	Library string `json:"library,omitempty"`
	From    string `json:"from,omitempty"` // including source file
}

// LocateData is the answer to a locate request.
type LocateData struct {
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
}

// ReadyData is sent once when the server starts.
type ReadyData struct {
	Version  string   `json:"version"`
	Requests []string `json:"requests"`
}
