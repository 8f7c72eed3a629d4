package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/cobprep/pkg/datastore"
	"github.com/praetorian-inc/cobprep/pkg/scanner"
	"github.com/praetorian-inc/cobprep/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanTree(t *testing.T) string {
	t.Helper()
	return writeTree(t, map[string]string{
		"src/HELLO.cbl":  helloProgram,
		"src/REC.cpy":    recCopybook,
		"src/BROKEN.cbl": brokenProgram,
		"README.md":      "not COBOL\n",
	})
}

func TestRunScan(t *testing.T) {
	resetGlobals(t)
	dir := scanTree(t)
	scanDatastore = filepath.Join(t.TempDir(), "out.ds")
	cmd, stdout, _ := newTestCmd()

	err := runScan(cmd, []string{dir})
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Scan complete: 2 sources, 1 diagnostics")
	assert.Contains(t, stdout.String(), "Results stored in: "+scanDatastore)

	_, err = os.Stat(filepath.Join(scanDatastore, datastore.DatabaseName))
	require.NoError(t, err, "database file should be created")

	s, err := store.New(store.Config{Path: filepath.Join(scanDatastore, datastore.DatabaseName)})
	require.NoError(t, err)
	defer s.Close()

	sources, err := s.GetSources()
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "BROKEN.cbl", filepath.Base(sources[0].Path))
	assert.Equal(t, "HELLO.cbl", filepath.Base(sources[1].Path))

	prov, err := s.GetProvenance(sources[1].ID)
	require.NoError(t, err)
	require.Len(t, prov, 1)
	assert.Equal(t, "file", prov[0].Kind())

	tokens, err := s.GetTokens(sources[1].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens)
}

func TestRunScan_IncludeCopybooks(t *testing.T) {
	resetGlobals(t)
	dir := scanTree(t)
	scanDatastore = filepath.Join(t.TempDir(), "out.ds")
	scanIncludeCopybooks = true
	cmd, stdout, _ := newTestCmd()

	require.NoError(t, runScan(cmd, []string{dir}))
	assert.Contains(t, stdout.String(), "Scan complete: 3 sources")
}

func TestRunScan_Incremental(t *testing.T) {
	resetGlobals(t)
	dir := scanTree(t)
	scanDatastore = filepath.Join(t.TempDir(), "out.ds")
	cmd, _, _ := newTestCmd()
	require.NoError(t, runScan(cmd, []string{dir}))

	scanIncremental = true
	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runScan(cmd, []string{dir}))
	assert.Contains(t, stdout.String(), "Scan complete: 0 sources, 0 diagnostics (2 sources skipped)")
}

func TestRunScan_MultipleRoots(t *testing.T) {
	resetGlobals(t)
	dir := scanTree(t)
	extra := writeTree(t, map[string]string{"OTHER.cbl": helloProgram})
	scanDatastore = filepath.Join(t.TempDir(), "out.ds")
	cmd, stdout, _ := newTestCmd()

	require.NoError(t, runScan(cmd, []string{filepath.Join(dir, "src"), dir, extra}))
	assert.Contains(t, stdout.String(), "Scan complete: 3 sources, 2 diagnostics (2 overlapping paths)")

	s, err := store.New(store.Config{Path: filepath.Join(scanDatastore, datastore.DatabaseName)})
	require.NoError(t, err)
	defer s.Close()

	sources, err := s.GetSources()
	require.NoError(t, err)
	assert.Len(t, sources, 2, "identical content is stored once")
}

func TestRunScan_StoreSources(t *testing.T) {
	resetGlobals(t)
	dir := scanTree(t)
	scanDatastore = filepath.Join(t.TempDir(), "out.ds")
	scanStoreSources = true
	cmd, _, _ := newTestCmd()

	require.NoError(t, runScan(cmd, []string{dir}))

	ds, err := datastore.Open(scanDatastore, datastore.Options{StoreSources: true})
	require.NoError(t, err)
	defer ds.Close()

	sources, err := ds.Store.GetSources()
	require.NoError(t, err)
	for _, src := range sources {
		assert.True(t, ds.Sources.Exists(src.ID), src.Path)
	}
}

func TestRunScan_JSON(t *testing.T) {
	resetGlobals(t)
	dir := scanTree(t)
	scanDatastore = filepath.Join(t.TempDir(), "out.ds")
	scanOutputFormat = "json"
	cmd, stdout, stderr := newTestCmd()

	require.NoError(t, runScan(cmd, []string{dir}))
	assert.Contains(t, stderr.String(), "Scan complete")

	var results []scanner.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Len(t, results[0].Diagnostics, 1)
	assert.Equal(t, "copybook-not-found", results[0].Diagnostics[0].Code)
	assert.Contains(t, results[1].Text, "01 REC PIC X.")
}

func TestRunScan_FailOn(t *testing.T) {
	resetGlobals(t)
	dir := scanTree(t)
	scanDatastore = filepath.Join(t.TempDir(), "out.ds")
	scanFailOn = "warning"
	cmd, _, _ := newTestCmd()

	err := runScan(cmd, []string{dir})
	require.Error(t, err)
}

func TestRunScanInvalidTarget(t *testing.T) {
	resetGlobals(t)
	cmd, _, _ := newTestCmd()
	scanDatastore = store.MemoryPath

	err := runScan(cmd, []string{"/nonexistent/path"})
	assert.Error(t, err, "should error on nonexistent target")
}
