// Package serve runs a long-lived preprocessing server speaking NDJSON over
// a reader and a writer.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/praetorian-inc/cobprep/pkg/scanner"
)

// Version is the server protocol version.
const Version = "1.1.0"

// errClose stops the main loop without an error response.
var errClose = errors.New("close requested")

type handlerFunc func(payload json.RawMessage) (any, error)

// Server answers preprocessing requests one line at a time. Responses are
// written in request order.
type Server struct {
	core     *scanner.Core
	encoder  *json.Encoder
	decoder  *json.Decoder
	handlers map[string]handlerFunc
}

// NewServer creates a server reading requests from in and writing
// responses to out.
func NewServer(core *scanner.Core, in io.Reader, out io.Writer) *Server {
	s := &Server{
		core:    core,
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
	}
	s.handlers = map[string]handlerFunc{
		TypePreprocess:      s.preprocess,
		TypePreprocessBatch: s.preprocessBatch,
		TypeLocate:          s.locate,
		TypeStats:           s.stats,
		TypeClose:           func(json.RawMessage) (any, error) { return nil, errClose },
	}
	return s
}

// Run sends the ready line and serves requests until the input ends, a
// close request arrives or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.reply(Response{Success: true, Type: TypeReady}, ReadyData{Version: Version, Requests: s.requestTypes()})

	requests := make(chan Request, 1)
	decodeErr := make(chan error, 1)
	go s.readLoop(ctx, requests, decodeErr)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-requests:
			if s.handle(req) {
				return nil
			}
		case err := <-decodeErr:
			// The reader may have queued a request just before failing.
			select {
			case req := <-requests:
				if s.handle(req) {
					return nil
				}
			default:
			}
			if !errors.Is(err, io.EOF) {
				s.fail("", TypeDecode, err)
			}
			return nil
		}
	}
}

func (s *Server) readLoop(ctx context.Context, requests chan<- Request, decodeErr chan<- error) {
	for {
		var req Request
		if err := s.decoder.Decode(&req); err != nil {
			decodeErr <- err
			return
		}
		select {
		case requests <- req:
		case <-ctx.Done():
			return
		}
	}
}

// handle answers one request and reports whether the server should stop.
func (s *Server) handle(req Request) bool {
	h, ok := s.handlers[req.Type]
	if !ok {
		s.fail(req.ID, TypeUnknown, fmt.Errorf("unknown request type: %s", req.Type))
		return false
	}
	data, err := h(req.Payload)
	switch {
	case errors.Is(err, errClose):
		return true
	case err != nil:
		s.fail(req.ID, req.Type, err)
	default:
		s.reply(Response{ID: req.ID, Success: true, Type: req.Type}, data)
	}
	return false
}

func (s *Server) preprocess(payload json.RawMessage) (any, error) {
	var p PreprocessPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	return s.core.PreprocessItem(p)
}

func (s *Server) preprocessBatch(payload json.RawMessage) (any, error) {
	var p PreprocessBatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	return s.core.PreprocessBatch(p.Items)
}

func (s *Server) locate(payload json.RawMessage) (any, error) {
	var p LocatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, errors.New("locate: name is required")
	}
	path, found := s.core.Locate(p.Name, p.Library, p.From)
	return LocateData{Found: found, Path: path}, nil
}

func (s *Server) stats(json.RawMessage) (any, error) {
	return s.core.Stats()
}

func (s *Server) requestTypes() []string {
	types := make([]string, 0, len(s.handlers))
	for t := range s.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (s *Server) reply(resp Response, data any) {
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			s.fail(resp.ID, resp.Type, err)
			return
		}
		resp.Data = raw
	}
	_ = s.encoder.Encode(resp)
}

func (s *Server) fail(id, reqType string, err error) {
	_ = s.encoder.Encode(Response{ID: id, Success: false, Type: reqType, Error: err.Error()})
}
