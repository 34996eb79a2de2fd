package queue

import (
	"encoding/json"
	"fmt"

	"github.com/aerolens/aerolens/internal/compression"
)

// Codec turns values into message payloads: JSON inside a compression envelope
type Codec struct {
	Algorithm compression.Algorithm
}

// NewCodec returns a snappy codec when compress is set
func NewCodec(compress bool) Codec {
	if compress {
		return Codec{Algorithm: compression.Snappy}
	}
	return Codec{Algorithm: compression.None}
}

// Marshal encodes v
func (c Codec) Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return compression.Seal(c.Algorithm, raw)
}

// Unmarshal decodes a payload produced by any Codec, whatever its algorithm
func (c Codec) Unmarshal(data []byte, v any) error {
	raw, err := compression.Open(data)
	if err != nil {
		return fmt.Errorf("open payload: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
