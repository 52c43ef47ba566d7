package container

import (
	"bytes"
	"io"

	"github.com/starling-lang/starling/pkg/strpool"
	"github.com/starling-lang/starling/pkg/value"
)

// EncodeValue serializes a single Value using the same constant encoding
// EncodeChunk uses for a chunk's constant pool — exported so pkg/loader
// can encode a compiled module's Exports section (one Value per export,
// pre-computed at compile time rather than produced by running the
// module's top-level code) without duplicating the tag-switch logic.
func EncodeValue(w io.Writer, v value.Value) error { return writeConstant(w, v) }

// DecodeValue is EncodeValue's inverse.
func DecodeValue(r io.Reader, pool *strpool.Pool) (value.Value, error) {
	return readConstant(r, pool)
}

// EncodeValueBytes and DecodeValueBytes are the byte-slice convenience
// forms pkg/loader's Exports-section (de)serialization uses directly.
func EncodeValueBytes(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeValueBytes(data []byte, pool *strpool.Pool) (value.Value, error) {
	return DecodeValue(bytes.NewReader(data), pool)
}
