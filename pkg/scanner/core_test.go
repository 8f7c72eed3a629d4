package scanner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/cobprep/pkg/pipeline"
	"github.com/praetorian-inc/cobprep/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCore(t *testing.T, opts Options) *Core {
	t.Helper()
	cfg := pipeline.DefaultConfig()
	cfg.Format = types.FormatFree
	core, err := NewCore(cfg, opts, nil)
	require.NoError(t, err)
	t.Cleanup(func() { core.Close() })
	return core
}

func TestNewCore_InvalidConfig(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	cfg.TabLength = 0
	_, err := NewCore(cfg, Options{}, nil)
	assert.Error(t, err)
}

func TestCore_Preprocess(t *testing.T) {
	core := newCore(t, Options{Tokens: true})

	result, err := core.Preprocess("REPLACE ==A== BY ==B==.\nMOVE A TO C.\n", "R.cbl")
	require.NoError(t, err)

	assert.Equal(t, "R.cbl", result.Source)
	assert.Equal(t, types.ComputeSourceID([]byte("REPLACE ==A== BY ==B==.\nMOVE A TO C.\n")).Hex(), result.ID)
	assert.Equal(t, "FREE", result.Format)
	assert.Contains(t, result.Text, "MOVE B TO C.")
	assert.Empty(t, result.Diagnostics)
	require.NotEmpty(t, result.Tokens)

	var replaced *Token
	for i := range result.Tokens {
		if result.Tokens[i].Text == "B" && result.Tokens[i].Depth == 1 {
			replaced = &result.Tokens[i]
		}
	}
	require.NotNil(t, replaced)
	assert.Contains(t, replaced.Tags, "WORD")

	exists, err := core.Store().SourceExists(types.ComputeSourceID([]byte("REPLACE ==A== BY ==B==.\nMOVE A TO C.\n")))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCore_PreprocessDiagnostics(t *testing.T) {
	core := newCore(t, Options{})

	result, err := core.Preprocess("COPY MISSING.\n", "P.cbl")
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "copybook-not-found", result.Diagnostics[0].Code)
	assert.Equal(t, "warning", result.Diagnostics[0].Severity)
	assert.Equal(t, "P.cbl", result.Diagnostics[0].Start.Resource)
	assert.Nil(t, result.Tokens)

	stored, err := core.Store().GetDiagnostics()
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCore_PreprocessItemFormat(t *testing.T) {
	core := newCore(t, Options{})

	result, err := core.PreprocessItem(ContentItem{Source: "F.cbl", Content: "000100 MOVE A TO B.\n", Format: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "FIXED", result.Format)
	assert.Equal(t, "MOVE A TO B.\n", result.Text)

	_, err = core.PreprocessItem(ContentItem{Source: "F.cbl", Content: "x", Format: "card"})
	assert.Error(t, err)
}

func TestCore_PreprocessBatch(t *testing.T) {
	core := newCore(t, Options{})

	batch, err := core.PreprocessBatch([]ContentItem{
		{Source: "a.cbl", Content: "MOVE A TO B.\n"},
		{Source: "b.cbl", Content: "x", Format: "bogus"},
		{Source: "c.cbl", Content: "COPY NOPE.\n"},
	})
	require.NoError(t, err)
	require.Len(t, batch.Results, 2)
	assert.Equal(t, "a.cbl", batch.Results[0].Source)
	assert.Equal(t, "c.cbl", batch.Results[1].Source)
	assert.Equal(t, 1, batch.Diagnostics)

	data, err := json.Marshal(batch)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"diagnostics":1`)
}

func TestCore_Locate(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(t.TempDir(), "lib")
	require.NoError(t, os.MkdirAll(lib, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(lib, "SHARED.cpy"), []byte("01 S PIC X.\n"), 0644))

	cfg := pipeline.DefaultConfig()
	cfg.SearchPaths = []string{lib}
	core, err := NewCore(cfg, Options{}, nil)
	require.NoError(t, err)
	defer core.Close()

	path, ok := core.Locate("SHARED", "", filepath.Join(dir, "MAIN.cbl"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(lib, "SHARED.cpy"), path)

	_, ok = core.Locate("MISSING", "", filepath.Join(dir, "MAIN.cbl"))
	assert.False(t, ok)
}

func TestCore_Stats(t *testing.T) {
	core := newCore(t, Options{})

	stats, err := core.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Sources)

	_, err = core.Preprocess("COPY A.\nCOPY B.\n", "a.cbl")
	require.NoError(t, err)
	_, err = core.Preprocess("MOVE A TO B.\n", "b.cbl")
	require.NoError(t, err)

	stats, err = core.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sources)
	assert.Equal(t, 2, stats.Diagnostics)
	assert.Equal(t, map[string]int{"copybook-not-found": 2}, stats.ByCode)
}
