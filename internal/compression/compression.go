// Package compression wraps message payloads in a one-byte envelope naming the algorithm used,
// so consumers can decode regardless of how the producer was configured.
package compression

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// Algorithm identifies how a payload was compressed
type Algorithm uint8

const (
	None   Algorithm = 0
	Snappy Algorithm = 1
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Snappy:
		return "snappy"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// ErrEmptyEnvelope is returned when a payload has no header byte
var ErrEmptyEnvelope = errors.New("compression: empty envelope")

// Compressor interface for compression algorithms
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Algorithm() Algorithm
}

// GetCompressor returns a compressor for the given algorithm
func GetCompressor(algo Algorithm) (Compressor, error) {
	switch algo {
	case None:
		return noneCompressor{}, nil
	case Snappy:
		return snappyCompressor{}, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", algo)
	}
}

type noneCompressor struct{}

func (noneCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (noneCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
func (noneCompressor) Algorithm() Algorithm                   { return None }

type snappyCompressor struct{}

func (snappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (snappyCompressor) Decompress(data []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress failed: %w", err)
	}
	return out, nil
}

func (snappyCompressor) Algorithm() Algorithm { return Snappy }

// Seal compresses data with algo and prefixes the algorithm byte
func Seal(algo Algorithm, data []byte) ([]byte, error) {
	c, err := GetCompressor(algo)
	if err != nil {
		return nil, err
	}
	body, err := c.Compress(data)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(algo))
	return append(out, body...), nil
}

// Open reverses Seal
func Open(envelope []byte) ([]byte, error) {
	if len(envelope) == 0 {
		return nil, ErrEmptyEnvelope
	}
	c, err := GetCompressor(Algorithm(envelope[0]))
	if err != nil {
		return nil, err
	}
	return c.Decompress(envelope[1:])
}
