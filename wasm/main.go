//go:build wasm

package main

import (
	"syscall/js"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("CobprepNewPreprocessor", js.FuncOf(newPreprocessor))
	js.Global().Set("CobprepPreprocess", js.FuncOf(preprocess))
	js.Global().Set("CobprepPreprocessBatch", js.FuncOf(preprocessBatch))
	js.Global().Set("CobprepClosePreprocessor", js.FuncOf(closePreprocessor))
	js.Global().Set("CobprepGetBuiltinDirectives", js.FuncOf(getBuiltinDirectives))

	// Keep WASM running
	<-make(chan struct{})
}
