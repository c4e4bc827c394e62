//go:build js && wasm

// Command wasm exposes the zipper-merge engine to browser renderers via
// WebAssembly. After loading, it registers a global `zipsim` object:
//
//	zipsim.run(jsonString) -> jsonString
//	zipsim.defaultConfig() -> jsonString
//
// run takes a JSON-encoded scenario configuration (unset fields take their
// defaults) and returns the JSON-encoded run result, matching the contract
// of `zipsim run`. defaultConfig returns the default scenario so a page can
// seed its controls before the first run.
package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/mergeworks/zipsim/internal/config"
	"github.com/mergeworks/zipsim/internal/sim"
)

func main() {
	api := js.Global().Get("Object").New()
	api.Set("run", js.FuncOf(run))
	api.Set("defaultConfig", js.FuncOf(defaultConfig))
	js.Global().Set("zipsim", api)
	select {} // keep the WASM module alive until the page is closed
}

func run(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return map[string]any{"error": "no scenario configuration provided"}
	}

	result, err := sim.RunJSON(args[0].String())
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return result
}

func defaultConfig(_ js.Value, _ []js.Value) any {
	out, err := json.Marshal(config.Default())
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return string(out)
}
