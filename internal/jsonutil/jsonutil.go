// Package jsonutil wraps json-iterator behind the small surface the rest
// of the toolkit needs.
package jsonutil

import (
	"bytes"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

type RawMessage = jsoniter.RawMessage

var bufferPool = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

func Marshal(v any) ([]byte, error) {
	return JSON.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return JSON.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return JSON.Unmarshal(data, v)
}

// Encode writes v as indented JSON to w, reusing pooled buffers.
func Encode(w io.Writer, v any) error {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	enc := JSON.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
