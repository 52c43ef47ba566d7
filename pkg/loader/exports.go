package loader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/starling-lang/starling/pkg/container"
	"github.com/starling-lang/starling/pkg/module"
	"github.com/starling-lang/starling/pkg/value"
)

// decodeExports parses an Exports-section payload (§6) — a count
// followed by name+Value pairs, each Value encoded with the same
// constant encoding a chunk's constant pool uses — and defines each one
// on m as an exported binding.
func (l *Loader) decodeExports(m *module.Module, data []byte) error {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return fmt.Errorf("loader: reading export count: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		name, err := readExportName(r)
		if err != nil {
			return fmt.Errorf("loader: reading export %d name: %w", i, err)
		}
		v, err := container.DecodeValue(r, l.pool)
		if err != nil {
			return fmt.Errorf("loader: reading export %q value: %w", name, err)
		}
		m.Define(name, v, true)
	}
	return nil
}

func readExportName(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// EncodeExports is the inverse of decodeExports, used by tooling (and
// tests) that build a container's Exports section directly rather than
// from a running compiler.
func EncodeExports(names []string, values []value.Value) ([]byte, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("loader: %d export names but %d values", len(names), len(values))
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(names))); err != nil {
		return nil, err
	}
	for i, name := range names {
		if err := binary.Write(&buf, binary.BigEndian, uint32(len(name))); err != nil {
			return nil, err
		}
		if _, err := buf.WriteString(name); err != nil {
			return nil, err
		}
		if err := container.EncodeValue(&buf, values[i]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
