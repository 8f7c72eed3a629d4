//go:build wasm

package main

import (
	"encoding/json"
	"strings"
	"syscall/js"
	"testing"

	"github.com/praetorian-inc/cobprep/pkg/scanner"
)

func newTestPreprocessor(t *testing.T, args ...interface{}) int {
	t.Helper()
	values := make([]js.Value, len(args))
	for i, a := range args {
		values[i] = js.ValueOf(a)
	}
	result := newPreprocessor(js.Value{}, values)

	resultMap, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected map result, got %T", result)
	}
	if errMsg, hasError := resultMap["error"]; hasError {
		t.Fatalf("Failed to create preprocessor: %v", errMsg)
	}
	handle, ok := resultMap["handle"].(int)
	if !ok {
		t.Fatal("Expected handle in result")
	}
	t.Cleanup(func() { closePreprocessor(js.Value{}, []js.Value{js.ValueOf(handle)}) })
	return handle
}

// TestPreprocessorCreation tests creating a preprocessor with the defaults
func TestPreprocessorCreation(t *testing.T) {
	newTestPreprocessor(t, "")
}

// TestPreprocessorInvalidConfig tests that a bad configuration is reported
func TestPreprocessorInvalidConfig(t *testing.T) {
	result := newPreprocessor(js.Value{}, []js.Value{js.ValueOf(`{"tab_length": 0}`)})
	resultMap := result.(map[string]interface{})
	if _, hasError := resultMap["error"]; !hasError {
		t.Fatal("Expected error for invalid configuration")
	}
}

// TestPreprocessContent tests preprocessing a free format source
func TestPreprocessContent(t *testing.T) {
	handle := newTestPreprocessor(t, `{"format": "free"}`, true)

	out := preprocess(js.Value{}, []js.Value{
		js.ValueOf(handle),
		js.ValueOf("REPLACE ==A== BY ==B==.\nMOVE A TO C.\n"),
		js.ValueOf("R.cbl"),
	})
	jsonStr, ok := out.(string)
	if !ok {
		t.Fatalf("Expected JSON string, got %v", out)
	}

	var result scanner.Result
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("Failed to parse result: %v", err)
	}
	if !strings.Contains(result.Text, "MOVE B TO C.") {
		t.Errorf("Expected replaced text, got %q", result.Text)
	}
	if len(result.Tokens) == 0 {
		t.Error("Expected tokens in result")
	}
}

// TestPreprocessBatch tests preprocessing multiple items
func TestPreprocessBatch(t *testing.T) {
	handle := newTestPreprocessor(t, "")

	items := []scanner.ContentItem{
		{Source: "A.cbl", Content: "MOVE 1 TO X.\n", Format: "free"},
		{Source: "B.cbl", Content: "       MOVE 2 TO Y.\n"},
	}
	itemsJSON, _ := json.Marshal(items)

	out := preprocessBatch(js.Value{}, []js.Value{js.ValueOf(handle), js.ValueOf(string(itemsJSON))})
	jsonStr, ok := out.(string)
	if !ok {
		t.Fatalf("Expected JSON string, got %v", out)
	}

	var batch scanner.BatchResult
	if err := json.Unmarshal([]byte(jsonStr), &batch); err != nil {
		t.Fatalf("Failed to parse batch result: %v", err)
	}
	if len(batch.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(batch.Results))
	}
}

// TestInvalidHandle tests calls with an unknown handle
func TestInvalidHandle(t *testing.T) {
	out := preprocess(js.Value{}, []js.Value{js.ValueOf(9999), js.ValueOf("X.")})
	if _, ok := out.(map[string]interface{})["error"]; !ok {
		t.Error("Expected error for invalid handle")
	}
}

// TestGetBuiltinDirectives tests the directive rule export
func TestGetBuiltinDirectives(t *testing.T) {
	out := getBuiltinDirectives(js.Value{}, nil)
	jsonStr, ok := out.(string)
	if !ok {
		t.Fatalf("Expected JSON string, got %v", out)
	}
	var rules []map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &rules); err != nil {
		t.Fatalf("Failed to parse rules: %v", err)
	}
	if len(rules) == 0 {
		t.Error("Expected builtin directive rules")
	}
}
