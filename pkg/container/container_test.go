package container

import (
	"bytes"
	"testing"

	"github.com/starling-lang/starling/pkg/bytecode"
	"github.com/starling-lang/starling/pkg/strpool"
	"github.com/starling-lang/starling/pkg/value"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	chunk := bytecode.NewChunk()
	chunk.EmitConstant(value.Number(42), 1)
	chunk.WriteOpcode(bytecode.OpHalt, 1)

	payload, err := EncodeChunk(chunk)
	if err != nil {
		t.Fatalf("EncodeChunk: %v", err)
	}

	sections := []Section{
		{Type: SectionMetadata, Data: []byte("starling-test")},
		{Type: SectionBytecode, Data: payload},
		{Type: SectionEnd, Data: nil},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, sections, 1234); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Timestamp != 1234 {
		t.Fatalf("expected timestamp 1234, got %d", decoded.Timestamp)
	}

	bcSection, ok := decoded.Find(SectionBytecode)
	if !ok {
		t.Fatalf("expected a Bytecode section")
	}

	pool := strpool.New()
	outChunk, err := DecodeChunk(bcSection.Data, pool)
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if len(outChunk.Code) != len(chunk.Code) {
		t.Fatalf("expected %d code bytes, got %d", len(chunk.Code), len(outChunk.Code))
	}
	if outChunk.Constants[0].AsNumber() != 42 {
		t.Fatalf("expected constant 42, got %v", outChunk.Constants[0])
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, headerSize))
	if _, err := Decode(buf); err == nil {
		t.Fatalf("expected an error decoding a zeroed (bad-magic) header")
	}
}

func TestDecodeRejectsTamperedChecksum(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []Section{{Type: SectionEnd}}, 1); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	raw := buf.Bytes()
	// The last byte belongs to the End entry's directory offset field; the
	// magic and header stay intact, so only the checksum can catch it.
	raw[len(raw)-1] ^= 0xFF

	if _, err := Decode(bytes.NewReader(raw)); err == nil {
		t.Fatalf("expected a checksum mismatch error for corrupted data")
	}
}
