package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/cobprep/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceStore_Store(t *testing.T) {
	bs := &SourceStore{Root: t.TempDir()}

	content := []byte("       IDENTIFICATION DIVISION.\n")
	id, err := bs.Store(content)
	require.NoError(t, err)
	assert.Equal(t, types.ComputeSourceID(content), id)

	hex := id.Hex()
	stored, err := os.ReadFile(filepath.Join(bs.Root, hex[:2], hex[2:]))
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestSourceStore_StoreIdempotent(t *testing.T) {
	bs := &SourceStore{Root: t.TempDir()}

	id1, err := bs.Store([]byte("COPY X."))
	require.NoError(t, err)
	id2, err := bs.Store([]byte("COPY X."))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	entries, err := os.ReadDir(filepath.Dir(bs.path(id1)))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestSourceStore_Get(t *testing.T) {
	bs := &SourceStore{Root: t.TempDir()}

	id, err := bs.Store(nil)
	require.NoError(t, err)
	content, err := bs.Get(id)
	require.NoError(t, err)
	assert.Empty(t, content)

	_, err = bs.Get(types.ComputeSourceID([]byte("does not exist")))
	assert.ErrorIs(t, err, ErrSourceNotStored)
}

func TestSourceStore_Exists(t *testing.T) {
	bs := &SourceStore{Root: t.TempDir()}

	id, err := bs.Store([]byte("exists"))
	require.NoError(t, err)
	assert.True(t, bs.Exists(id))
	assert.False(t, bs.Exists(types.ComputeSourceID([]byte("missing"))))
}

func TestSourceStore_Line(t *testing.T) {
	bs := &SourceStore{Root: t.TempDir()}

	id, err := bs.Store([]byte("000100 01 A.\r\n000200     COPY B.\n"))
	require.NoError(t, err)

	line, err := bs.Line(id, 2)
	require.NoError(t, err)
	assert.Equal(t, "000200     COPY B.", line)

	line, err = bs.Line(id, 1)
	require.NoError(t, err)
	assert.Equal(t, "000100 01 A.", line)

	_, err = bs.Line(id, 3)
	assert.ErrorContains(t, err, "out of range")
}

func TestOpenSources(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, OpenSources(dir))

	ds, err := Open(dir, Options{StoreSources: true})
	require.NoError(t, err)
	defer ds.Close()

	sources := OpenSources(dir)
	require.NotNil(t, sources)
	assert.Equal(t, filepath.Join(dir, SourcesDir), sources.Root)
}
