//go:build js && wasm
// +build js,wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/SoundAlike/internal/audio"
	"github.com/himanishpuri/SoundAlike/internal/fingerprint"
	"github.com/himanishpuri/SoundAlike/internal/similarity"
	"github.com/himanishpuri/SoundAlike/pkg/models"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorProcessing
	ErrorInvalidFingerprint
)

var (
	generator = fingerprint.NewGenerator(nil, fingerprint.DefaultConfig(), nil)
	scorer    = similarity.DefaultScorer()
)

// extractFingerprint(audioArray, sampleRate, channels) fingerprints raw
// interleaved samples in [-1, 1].
// Returns: {error: number, data: string} where data is the record as JSON.
func extractFingerprint(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 3 arguments: audioArray, sampleRate, channels")
	}

	audioDataJS, sampleRateJS, channelsJS := args[0], args[1], args[2]
	if audioDataJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray must be an Array or Float64Array")
	}
	if sampleRateJS.Type() != js.TypeNumber || channelsJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "sampleRate and channels must be numbers")
	}

	sampleRate := sampleRateJS.Int()
	channels := channelsJS.Int()
	if sampleRate <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid sample rate: %d", sampleRate))
	}
	if channels < 1 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid channel count: %d", channels))
	}

	length := audioDataJS.Length()
	if length == 0 {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray is empty")
	}

	samples := make([]float64, length)
	for i := 0; i < length; i++ {
		val := audioDataJS.Index(i)
		if val.Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("audioArray element %d is not a number", i))
		}
		samples[i] = val.Float()
	}

	buf := &audio.Buffer{Samples: audio.Downmix(samples, channels), SampleRate: sampleRate}
	rec, err := generator.FromSamples(context.Background(), "browser", buf)
	if err != nil {
		return makeErrorResponse(ErrorProcessing, fmt.Sprintf("Failed to fingerprint samples: %v", err))
	}
	rec.Name = ""

	data, err := json.Marshal(rec)
	if err != nil {
		return makeErrorResponse(ErrorProcessing, err.Error())
	}
	return makeResponse(string(data))
}

// compareFingerprints(jsonA, jsonB) scores two records produced by
// extractFingerprint (or fetched from the API).
// Returns: {error: number, data: string} where data is the breakdown as JSON.
func compareFingerprints(this js.Value, args []js.Value) any {
	if len(args) < 2 || args[0].Type() != js.TypeString || args[1].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 2 JSON string arguments")
	}

	var a, b models.Record
	if err := json.Unmarshal([]byte(args[0].String()), &a); err != nil {
		return makeErrorResponse(ErrorInvalidFingerprint, fmt.Sprintf("first fingerprint: %v", err))
	}
	if err := json.Unmarshal([]byte(args[1].String()), &b); err != nil {
		return makeErrorResponse(ErrorInvalidFingerprint, fmt.Sprintf("second fingerprint: %v", err))
	}

	bd, err := scorer.Breakdown(&a, &b)
	if err != nil {
		return makeErrorResponse(ErrorInvalidFingerprint, err.Error())
	}
	data, err := json.Marshal(bd)
	if err != nil {
		return makeErrorResponse(ErrorProcessing, err.Error())
	}
	return makeResponse(string(data))
}

func makeResponse(data string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	logf := func(method, msg string) {
		if !console.IsUndefined() {
			console.Call(method, msg)
		}
	}

	done := make(chan struct{})

	js.Global().Set("extractFingerprint", js.FuncOf(extractFingerprint))
	js.Global().Set("compareFingerprints", js.FuncOf(compareFingerprints))
	logf("log", "📝 extractFingerprint and compareFingerprints registered")

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		event := js.Global().Get("CustomEvent").New("wasmReady", js.Global().Get("Object").New())
		window.Call("dispatchEvent", event)
	} else {
		logf("error", "❌ window object is undefined!")
	}

	logf("log", "✅ SoundAlike WASM module loaded and ready")
	<-done
}
