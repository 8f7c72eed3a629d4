package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/praetorian-inc/cobprep/pkg/pipeline"
	"github.com/praetorian-inc/cobprep/pkg/scanner"
	"github.com/praetorian-inc/cobprep/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCore(t *testing.T) *scanner.Core {
	t.Helper()
	cfg := pipeline.DefaultConfig()
	cfg.Format = types.FormatFree
	core, err := scanner.NewCore(cfg, scanner.Options{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { core.Close() })
	return core
}

func TestServer_SendsReadyOnStart(t *testing.T) {
	core := newCore(t)

	in := strings.NewReader("")
	out := &bytes.Buffer{}

	srv := NewServer(core, in, out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately to exit after ready

	_ = srv.Run(ctx)

	// Parse first line as ready message
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)

	var resp Response
	err := json.Unmarshal([]byte(lines[0]), &resp)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "ready", resp.Type)
}

func TestServer_Preprocess(t *testing.T) {
	core := newCore(t)

	request := `{"type":"preprocess","payload":{"content":"COPY MISSING.\nMOVE A TO B.\n","source":"test.cbl"}}` + "\n"
	in := strings.NewReader(request)
	out := &bytes.Buffer{}

	srv := NewServer(core, in, out)
	err := srv.Run(context.Background())
	require.NoError(t, err) // Should exit cleanly on EOF

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2) // ready + preprocess response

	var resp Response
	err = json.Unmarshal([]byte(lines[1]), &resp)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "preprocess", resp.Type)

	var result scanner.Result
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, "test.cbl", result.Source)
	assert.Contains(t, result.Text, "MOVE A TO B.")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "copybook-not-found", result.Diagnostics[0].Code)
}

func TestServer_GracefulShutdownOnContext(t *testing.T) {
	core := newCore(t)

	// Slow reader that blocks
	pr, pw := io.Pipe()
	out := &bytes.Buffer{}

	srv := NewServer(core, pr, out)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- srv.Run(ctx)
	}()

	// Wait for ready signal
	time.Sleep(100 * time.Millisecond)

	// Cancel context
	cancel()
	pw.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServer_PreprocessBatch(t *testing.T) {
	core := newCore(t)

	request := `{"type":"preprocess_batch","payload":{"items":[{"source":"s1.cbl","content":"MOVE 1 TO X."},{"source":"s2.cbl","content":"DISPLAY X."}]}}` + "\n"
	in := strings.NewReader(request)
	out := &bytes.Buffer{}

	srv := NewServer(core, in, out)
	err := srv.Run(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var resp Response
	err = json.Unmarshal([]byte(lines[1]), &resp)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "preprocess_batch", resp.Type)

	var batch scanner.BatchResult
	require.NoError(t, json.Unmarshal(resp.Data, &batch))
	assert.Len(t, batch.Results, 2)
}

func TestServer_CloseCommand(t *testing.T) {
	core := newCore(t)

	request := `{"type":"close","payload":{}}` + "\n"
	in := strings.NewReader(request)
	out := &bytes.Buffer{}

	srv := NewServer(core, in, out)
	err := srv.Run(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1) // Only ready signal
}

func TestServer_UnknownCommand(t *testing.T) {
	core := newCore(t)

	request := `{"type":"invalid","payload":{}}` + "\n"
	in := strings.NewReader(request)
	out := &bytes.Buffer{}

	srv := NewServer(core, in, out)
	_ = srv.Run(context.Background())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var resp Response
	_ = json.Unmarshal([]byte(lines[1]), &resp)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "unknown request type")
}

func TestServer_MalformedJSON(t *testing.T) {
	core := newCore(t)

	request := `{invalid json}` + "\n"
	in := strings.NewReader(request)
	out := &bytes.Buffer{}

	srv := NewServer(core, in, out)
	_ = srv.Run(context.Background())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)

	var resp Response
	_ = json.Unmarshal([]byte(lines[1]), &resp)

	assert.False(t, resp.Success)
	assert.Equal(t, "decode", resp.Type)
}

func runRequests(t *testing.T, core *scanner.Core, requests ...string) []Response {
	t.Helper()
	out := &bytes.Buffer{}
	srv := NewServer(core, strings.NewReader(strings.Join(requests, "\n")+"\n"), out)
	require.NoError(t, srv.Run(context.Background()))

	var responses []Response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		responses = append(responses, resp)
	}
	return responses
}

func TestServer_ReadyListsRequests(t *testing.T) {
	responses := runRequests(t, newCore(t))
	require.Len(t, responses, 1)

	var ready ReadyData
	require.NoError(t, json.Unmarshal(responses[0].Data, &ready))
	assert.Equal(t, Version, ready.Version)
	assert.Equal(t, []string{"close", "locate", "preprocess", "preprocess_batch", "stats"}, ready.Requests)
}

func TestServer_EchoesRequestID(t *testing.T) {
	responses := runRequests(t, newCore(t),
		`{"id":"a1","type":"preprocess","payload":{"source":"a.cbl","content":"MOVE A TO B."}}`,
		`{"id":"a2","type":"bogus"}`,
	)
	require.Len(t, responses, 3)
	assert.Equal(t, "a1", responses[1].ID)
	assert.True(t, responses[1].Success)
	assert.Equal(t, "a2", responses[2].ID)
	assert.Equal(t, TypeUnknown, responses[2].Type)
}

func TestServer_Locate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "REC.cpy"), []byte("01 REC PIC X.\n"), 0644))
	from := filepath.Join(dir, "PROG.cbl")

	responses := runRequests(t, newCore(t),
		`{"type":"locate","payload":{"name":"REC","from":`+strconv.Quote(from)+`}}`,
		`{"type":"locate","payload":{"name":"NOPE","from":`+strconv.Quote(from)+`}}`,
		`{"type":"locate","payload":{}}`,
	)
	require.Len(t, responses, 4)

	var found LocateData
	require.NoError(t, json.Unmarshal(responses[1].Data, &found))
	assert.True(t, found.Found)
	assert.Equal(t, filepath.Join(dir, "REC.cpy"), found.Path)

	var missing LocateData
	require.NoError(t, json.Unmarshal(responses[2].Data, &missing))
	assert.False(t, missing.Found)

	assert.False(t, responses[3].Success)
	assert.Contains(t, responses[3].Error, "name is required")
}

func TestServer_Stats(t *testing.T) {
	responses := runRequests(t, newCore(t),
		`{"type":"preprocess","payload":{"source":"a.cbl","content":"COPY MISSING."}}`,
		`{"type":"preprocess","payload":{"source":"b.cbl","content":"MOVE A TO B."}}`,
		`{"type":"stats"}`,
	)
	require.Len(t, responses, 4)

	var stats scanner.Stats
	require.NoError(t, json.Unmarshal(responses[3].Data, &stats))
	assert.Equal(t, 2, stats.Sources)
	assert.Equal(t, 1, stats.Diagnostics)
	assert.Equal(t, 1, stats.ByCode["copybook-not-found"])
}

func TestServer_PreprocessFormatOverride(t *testing.T) {
	responses := runRequests(t, newCore(t),
		`{"type":"preprocess","payload":{"source":"a.cbl","content":"x","format":"bogus"}}`,
	)
	require.Len(t, responses, 2)
	assert.False(t, responses[1].Success)
	assert.Contains(t, responses[1].Error, "unknown source format")
}
