//go:build wasm

package main

import (
	"encoding/json"
	"sync"
	"syscall/js"

	"github.com/praetorian-inc/cobprep/pkg/config"
	"github.com/praetorian-inc/cobprep/pkg/grammar"
	"github.com/praetorian-inc/cobprep/pkg/scanner"
)

var (
	preprocessors   = make(map[int]*scanner.Core)
	preprocessorsMu sync.RWMutex
	nextID          int
)

// newPreprocessor creates a preprocessor from a configuration document.
// JS: CobprepNewPreprocessor(configJSON, withTokens) -> {handle} or {error}
// configJSON uses the keys of cobprep.yaml; "" selects the defaults.
func newPreprocessor(this js.Value, args []js.Value) interface{} {
	cfg := config.Default()
	if len(args) > 0 && args[0].Type() == js.TypeString && args[0].String() != "" {
		// JSON is a subset of YAML.
		parsed, err := config.Parse([]byte(args[0].String()), "yaml")
		if err != nil {
			return map[string]interface{}{"error": "invalid configuration: " + err.Error()}
		}
		cfg = parsed
	}
	withTokens := len(args) > 1 && args[1].Type() == js.TypeBoolean && args[1].Bool()

	pcfg, err := cfg.Pipeline(nil)
	if err != nil {
		return map[string]interface{}{"error": "invalid configuration: " + err.Error()}
	}

	core, err := scanner.NewCore(pcfg, scanner.Options{Tokens: withTokens}, nil)
	if err != nil {
		return map[string]interface{}{"error": "failed to create preprocessor: " + err.Error()}
	}

	preprocessorsMu.Lock()
	id := nextID
	nextID++
	preprocessors[id] = core
	preprocessorsMu.Unlock()

	return map[string]interface{}{"handle": id}
}

func lookup(handle int) (*scanner.Core, bool) {
	preprocessorsMu.RLock()
	defer preprocessorsMu.RUnlock()
	core, ok := preprocessors[handle]
	return core, ok
}

// preprocess runs the pipeline over a single source text.
// JS: CobprepPreprocess(handle, content, source, format) -> JSON result or {error}
func preprocess(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "handle and content arguments required"}
	}

	item := scanner.ContentItem{Content: args[1].String()}
	if len(args) > 2 {
		item.Source = args[2].String()
	}
	if len(args) > 3 {
		item.Format = args[3].String()
	}

	core, ok := lookup(args[0].Int())
	if !ok {
		return map[string]interface{}{"error": "invalid preprocessor handle"}
	}

	result, err := core.PreprocessItem(item)
	if err != nil {
		return map[string]interface{}{"error": "preprocess failed: " + err.Error()}
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal result: " + err.Error()}
	}
	return string(jsonBytes)
}

// preprocessBatch runs the pipeline over multiple items.
// JS: CobprepPreprocessBatch(handle, itemsJSON) -> JSON results or {error}
func preprocessBatch(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "handle and itemsJSON arguments required"}
	}

	core, ok := lookup(args[0].Int())
	if !ok {
		return map[string]interface{}{"error": "invalid preprocessor handle"}
	}

	var items []scanner.ContentItem
	if err := json.Unmarshal([]byte(args[1].String()), &items); err != nil {
		return map[string]interface{}{"error": "failed to parse items JSON: " + err.Error()}
	}

	batch, err := core.PreprocessBatch(items)
	if err != nil {
		return map[string]interface{}{"error": "batch preprocess failed: " + err.Error()}
	}

	jsonBytes, err := json.Marshal(batch)
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal results: " + err.Error()}
	}
	return string(jsonBytes)
}

// closePreprocessor releases a preprocessor.
// JS: CobprepClosePreprocessor(handle)
func closePreprocessor(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "handle argument required"}
	}

	handle := args[0].Int()

	preprocessorsMu.Lock()
	core, ok := preprocessors[handle]
	if ok {
		delete(preprocessors, handle)
	}
	preprocessorsMu.Unlock()

	if !ok {
		return map[string]interface{}{"error": "invalid preprocessor handle"}
	}

	core.Close()
	return nil
}

// getBuiltinDirectives returns the builtin directive rules as JSON.
// JS: CobprepGetBuiltinDirectives() -> JSON rules array
func getBuiltinDirectives(this js.Value, args []js.Value) interface{} {
	rules, err := grammar.NewLoader().LoadBuiltinRules()
	if err != nil {
		return map[string]interface{}{"error": "failed to load builtin directives: " + err.Error()}
	}

	jsonBytes, err := json.Marshal(rules)
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal directives: " + err.Error()}
	}
	return string(jsonBytes)
}
