// Package apiconnect wires the fistein.v1 services onto connect handlers and
// clients.
package apiconnect

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Codec marshals messages as plain JSON. It registers under the name
// "json", so requests use Content-Type application/json (and
// application/connect+json for streaming).
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal into %T: %w", msg, err)
	}
	return nil
}

// withCodec appends the JSON codec so it wins over connect's default
// protobuf-based "json" codec.
func withCodec[O any](opts []O, codec O) []O {
	return append(opts[:len(opts):len(opts)], codec)
}
