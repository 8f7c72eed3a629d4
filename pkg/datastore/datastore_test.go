package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/cobprep/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cobprep.ds")

	ds, err := Open(dir, Options{StoreSources: true})
	require.NoError(t, err)
	defer ds.Close()

	assert.FileExists(t, filepath.Join(dir, DatabaseName))
	assert.FileExists(t, filepath.Join(dir, ".gitignore"))
	assert.DirExists(t, filepath.Join(dir, "sources"))
	require.NotNil(t, ds.Sources)
	assert.IsType(t, &store.SQLiteStore{}, ds.Store)
}

func TestOpen_WithoutSources(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cobprep.ds")

	ds, err := Open(dir, Options{})
	require.NoError(t, err)
	defer ds.Close()

	assert.Nil(t, ds.Sources)
	_, err = os.Stat(filepath.Join(dir, "sources"))
	assert.True(t, os.IsNotExist(err))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("", Options{})
	assert.Error(t, err)
}

func TestDatabasePath(t *testing.T) {
	dir := t.TempDir()

	path, err := DatabasePath(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DatabaseName), path)

	file := filepath.Join(dir, "scan.db")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	path, err = DatabasePath(file)
	require.NoError(t, err)
	assert.Equal(t, file, path)

	_, err = DatabasePath(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	_, err = DatabasePath(store.MemoryPath)
	assert.Error(t, err)
}
