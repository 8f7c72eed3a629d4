package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/cobprep/pkg/config"
	"github.com/stretchr/testify/require"
)

// resetGlobals restores the package-level flag variables between tests.
func resetGlobals(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvCopybookPaths, "")
	t.Setenv(config.EnvFormat, "")

	configPath = ""
	verbose = false
	quiet = false

	preprocessFlags = pipelineFlags{}
	preprocessFormat = "text"
	preprocessColor = "never"
	preprocessFailOn = "error"

	scanFlags = pipelineFlags{}
	scanDatastore = ""
	scanOutputFormat = "human"
	scanMaxFileSize = 0
	scanIncludeHidden = false
	scanIncludeCopybooks = false
	scanWorkers = 0
	scanIncremental = false
	scanStoreSources = false
	scanFailOn = "never"

	reportDatastore = "cobprep.ds"
	reportFormat = "human"
	reportColor = "never"
}

// writeTree writes files relative to a new temporary directory.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

const (
	helloProgram = "000100 IDENTIFICATION DIVISION.\n" +
		"000200 PROGRAM-ID. HELLO.\n" +
		"000300 WORKING-STORAGE SECTION.\n" +
		"000400     COPY REC.\n" +
		"000500 PROCEDURE DIVISION.\n" +
		"000600     DISPLAY 'HI'.\n"
	recCopybook  = "000100 01 REC PIC X.\n"
	brokenProgram = "000100 PROGRAM-ID. BROKEN.\n" +
		"000200     COPY NOWHERE.\n"
)
