package compression

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSealOpen(t *testing.T) {
	payload := []byte(strings.Repeat(`{"drone_id":"drone-1","metric":"battery","value":87.5}`, 20))

	for _, algo := range []Algorithm{None, Snappy} {
		t.Run(algo.String(), func(t *testing.T) {
			sealed, err := Seal(algo, payload)
			if err != nil {
				t.Fatalf("Seal failed: %v", err)
			}
			if Algorithm(sealed[0]) != algo {
				t.Errorf("expected header %d, got %d", algo, sealed[0])
			}

			opened, err := Open(sealed)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !bytes.Equal(opened, payload) {
				t.Error("payload changed after Seal/Open")
			}
		})
	}
}

func TestSnappyShrinksRepetitivePayload(t *testing.T) {
	payload := []byte(strings.Repeat("motor_temp=41.2;", 200))
	sealed, err := Seal(Snappy, payload)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if len(sealed) >= len(payload)/2 {
		t.Errorf("expected snappy to compress repetitive data, got %d of %d bytes", len(sealed), len(payload))
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(nil); !errors.Is(err, ErrEmptyEnvelope) {
		t.Errorf("expected ErrEmptyEnvelope, got %v", err)
	}
	if _, err := Open([]byte{9, 'x'}); err == nil {
		t.Error("expected error for unknown algorithm")
	}
	if _, err := Open([]byte{byte(Snappy), 0xff, 0xff, 0xff}); err == nil {
		t.Error("expected error for corrupt snappy body")
	}
}

func TestGetCompressor(t *testing.T) {
	c, err := GetCompressor(Snappy)
	if err != nil {
		t.Fatalf("GetCompressor failed: %v", err)
	}
	if c.Algorithm() != Snappy {
		t.Errorf("expected Snappy, got %s", c.Algorithm())
	}
	if _, err := GetCompressor(Algorithm(7)); err == nil {
		t.Error("expected error for unsupported algorithm")
	}
}
