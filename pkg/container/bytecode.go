package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/starling-lang/starling/pkg/bytecode"
	"github.com/starling-lang/starling/pkg/strpool"
	"github.com/starling-lang/starling/pkg/value"
)

// Constant type tags for the Bytecode section's constant pool,
// generalizing the teacher's constTypeInteger/Float/String/Boolean/Nil
// (pkg/bytecode/format.go) from a Smalltalk-flavored constant set to
// this VM's tagged Value union. There is deliberately no tag for
// Object/Closure/Struct constants: a chunk's constant pool only ever
// holds scalars, nested Function literals (for closures defined inside
// the function), and StructDef type descriptors that new_struct mints
// instances from — anything else is constructed at runtime.
const (
	constNil byte = iota + 1
	constBool
	constNumber
	constString
	constFunction
	constStructDef
)

// EncodeChunk serializes a Chunk as Bytecode-section payload bytes.
func EncodeChunk(c *bytecode.Chunk) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeChunk(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeChunk parses Bytecode-section payload bytes back into a Chunk.
// pool interns every decoded string constant so it compares equal by
// pointer to identical strings already live in the VM (§4.1).
func DecodeChunk(data []byte, pool *strpool.Pool) (*bytecode.Chunk, error) {
	r := bytes.NewReader(data)
	return readChunk(r, pool)
}

func writeChunk(w io.Writer, c *bytecode.Chunk) error {
	if err := writeU32(w, uint32(len(c.Code))); err != nil {
		return err
	}
	if _, err := w.Write(c.Code); err != nil {
		return err
	}
	for _, line := range c.Lines {
		if err := writeU32(w, uint32(line)); err != nil {
			return err
		}
	}
	if err := writeU32(w, uint32(len(c.Constants))); err != nil {
		return err
	}
	for _, v := range c.Constants {
		if err := writeConstant(w, v); err != nil {
			return err
		}
	}
	return nil
}

func readChunk(r io.Reader, pool *strpool.Pool) (*bytecode.Chunk, error) {
	codeLen, err := readU32(r)
	if err != nil {
		return nil, err
	}
	code := make([]byte, codeLen)
	if _, err := io.ReadFull(r, code); err != nil {
		return nil, err
	}
	lines := make([]int, codeLen)
	for i := range lines {
		l, err := readU32(r)
		if err != nil {
			return nil, err
		}
		lines[i] = int(l)
	}
	constCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	constants := make([]value.Value, constCount)
	for i := range constants {
		v, err := readConstant(r, pool)
		if err != nil {
			return nil, err
		}
		constants[i] = v
	}
	return &bytecode.Chunk{Code: code, Lines: lines, Constants: constants}, nil
}

func writeConstant(w io.Writer, v value.Value) error {
	switch v.Tag() {
	case value.TagNil:
		return writeByte(w, constNil)
	case value.TagBool:
		if err := writeByte(w, constBool); err != nil {
			return err
		}
		b := byte(0)
		if v.AsBool() {
			b = 1
		}
		return writeByte(w, b)
	case value.TagNumber:
		if err := writeByte(w, constNumber); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.AsNumber())
	case value.TagString:
		if err := writeByte(w, constString); err != nil {
			return err
		}
		return writeString(w, *v.AsString())
	case value.TagFunction:
		if err := writeByte(w, constFunction); err != nil {
			return err
		}
		fn := v.AsFunction()
		if err := writeString(w, fn.Name); err != nil {
			return err
		}
		if err := writeU32(w, uint32(fn.Arity)); err != nil {
			return err
		}
		if err := writeU32(w, uint32(fn.UpvalueCount)); err != nil {
			return err
		}
		inner, ok := fn.Chunk.(*bytecode.Chunk)
		if !ok {
			return fmt.Errorf("container: function constant %q has no encodable chunk", fn.Name)
		}
		return writeChunk(w, inner)
	case value.TagStructDef:
		if err := writeByte(w, constStructDef); err != nil {
			return err
		}
		def := v.AsStructDef()
		if err := writeString(w, def.Name); err != nil {
			return err
		}
		if err := writeU32(w, uint32(len(def.FieldNames))); err != nil {
			return err
		}
		for _, name := range def.FieldNames {
			if err := writeString(w, name); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("container: constant of tag %s is not encodable", v.Tag())
	}
}

func readConstant(r io.Reader, pool *strpool.Pool) (value.Value, error) {
	tag, err := readByte(r)
	if err != nil {
		return value.Nil, err
	}
	switch tag {
	case constNil:
		return value.Nil, nil
	case constBool:
		b, err := readByte(r)
		if err != nil {
			return value.Nil, err
		}
		return value.Bool(b != 0), nil
	case constNumber:
		var n float64
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return value.Nil, err
		}
		return value.Number(n), nil
	case constString:
		s, err := readString(r)
		if err != nil {
			return value.Nil, err
		}
		return value.String(pool.Intern(s)), nil
	case constFunction:
		name, err := readString(r)
		if err != nil {
			return value.Nil, err
		}
		arity, err := readU32(r)
		if err != nil {
			return value.Nil, err
		}
		upvalueCount, err := readU32(r)
		if err != nil {
			return value.Nil, err
		}
		inner, err := readChunk(r, pool)
		if err != nil {
			return value.Nil, err
		}
		return value.FunctionValue(value.NewFunction(name, int(arity), int(upvalueCount), inner)), nil
	case constStructDef:
		name, err := readString(r)
		if err != nil {
			return value.Nil, err
		}
		fieldCount, err := readU32(r)
		if err != nil {
			return value.Nil, err
		}
		fields := make([]string, fieldCount)
		for i := range fields {
			f, err := readString(r)
			if err != nil {
				return value.Nil, err
			}
			fields[i] = f
		}
		return value.StructDefValue(&value.StructDef{Name: name, FieldNames: fields}), nil
	default:
		return value.Nil, fmt.Errorf("container: unknown constant tag 0x%02X", tag)
	}
}

func writeU32(w io.Writer, v uint32) error { return binary.Write(w, binary.BigEndian, v) }

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
