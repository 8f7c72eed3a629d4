package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLocate(t *testing.T) {
	resetGlobals(t)
	dir := writeTree(t, map[string]string{
		"app/MAIN.cbl":     brokenProgram,
		"app/LOCAL.cpy":    recCopybook,
		"lib/SHARED.cpy":   recCopybook,
		"lib/PAY/RATE.cpy": recCopybook,
	})
	locateSource = filepath.Join(dir, "app", "MAIN.cbl")
	locateCopybookPaths = []string{filepath.Join(dir, "lib")}
	defer func() {
		locateSource = ""
		locateLibrary = ""
		locateCopybookPaths = nil
	}()

	tests := []struct {
		name    string
		library string
		want    string
	}{
		{name: "LOCAL", want: filepath.Join("app", "LOCAL.cpy")},
		{name: "shared", want: filepath.Join("lib", "SHARED.cpy")},
		{name: "RATE", library: "PAY", want: filepath.Join("lib", "PAY", "RATE.cpy")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locateLibrary = tt.library
			cmd, stdout, _ := newTestCmd()
			require.NoError(t, runLocate(cmd, []string{tt.name}))
			assert.True(t, strings.HasSuffix(strings.TrimSpace(stdout.String()), tt.want), stdout.String())
		})
	}
}

func TestRunLocate_NotFound(t *testing.T) {
	resetGlobals(t)
	locateLibrary = "LIB"
	defer func() { locateLibrary = "" }()
	cmd, _, _ := newTestCmd()

	err := runLocate(cmd, []string{"MISSING"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING OF LIB")
}
