// Package container implements the compiled-module binary format (§6
// "Compiled-module container binary format"): a header followed by a
// directory of typed sections. A loaded module's on-disk form is one
// container; pkg/loader decodes it into a pkg/module.Module plus a
// pkg/bytecode.Chunk per exported function.
//
// Binary Format Layout:
//
//	[Header]
//	  Magic       (4 bytes, big-endian): 0x53544152 ("STAR")
//	  Version     (4 bytes): format version, currently 1
//	  Flags       (4 bytes): reserved, currently 0
//	  SectionCount(4 bytes): number of section-directory entries
//	  Timestamp   (8 bytes): compile time, Unix seconds
//	  Checksum    (4 bytes): CRC-32 (IEEE) of the whole file with this
//	              field itself zeroed during the computation
//
//	[Section directory] (SectionCount entries)
//	  Type   (4 bytes)
//	  Size   (4 bytes)
//	  Offset (4 bytes): byte offset from the start of the section-data
//	                    blob that follows the directory
//
//	[Section data] (concatenated, SectionCount blobs back to back)
//
// This generalizes the teacher's pkg/bytecode/format.go — same header-
// then-data shape, same use of encoding/binary and length-prefixed
// strings — from a single flat constant pool to §6's typed section
// directory, and adds the CRC-32 checksum the teacher's format never
// had.
package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// Magic is the container file signature: "STAR".
const Magic uint32 = 0x53544152

// FormatVersion is the current container format version.
const FormatVersion uint32 = 1

const headerSize = 4 + 4 + 4 + 4 + 8 + 4 // magic,version,flags,count,timestamp,checksum
const sectionEntrySize = 4 + 4 + 4       // type,size,offset

// SectionType identifies one of the container's section kinds (§6).
type SectionType uint32

const (
	SectionMetadata SectionType = iota + 1
	SectionExports
	SectionImports
	SectionBytecode
	SectionNatives
	SectionEnd
)

func (t SectionType) String() string {
	switch t {
	case SectionMetadata:
		return "Metadata"
	case SectionExports:
		return "Exports"
	case SectionImports:
		return "Imports"
	case SectionBytecode:
		return "Bytecode"
	case SectionNatives:
		return "Natives"
	case SectionEnd:
		return "End"
	default:
		return "Unknown"
	}
}

// Section is one decoded section's raw bytes; callers (pkg/loader)
// interpret Data according to Type.
type Section struct {
	Type SectionType
	Data []byte
}

// Container is the fully decoded on-disk form.
type Container struct {
	Version   uint32
	Flags     uint32
	Timestamp uint64
	Sections  []Section
}

// Encode writes sections to w as a complete container, computing the
// CRC-32 checksum over the whole encoded file with the checksum field
// itself zeroed, per §6.
func Encode(w io.Writer, sections []Section, timestamp uint64) error {
	var dataBlob bytes.Buffer
	offsets := make([]uint32, len(sections))
	for i, s := range sections {
		offsets[i] = uint32(dataBlob.Len())
		dataBlob.Write(s.Data)
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, Magic); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.BigEndian, FormatVersion); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint32(0)); err != nil { // flags
		return err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(sections))); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.BigEndian, timestamp); err != nil {
		return err
	}
	checksumOffset := buf.Len()
	if err := binary.Write(&buf, binary.BigEndian, uint32(0)); err != nil { // checksum placeholder
		return err
	}

	for i, s := range sections {
		if err := binary.Write(&buf, binary.BigEndian, uint32(s.Type)); err != nil {
			return err
		}
		if err := binary.Write(&buf, binary.BigEndian, uint32(len(s.Data))); err != nil {
			return err
		}
		if err := binary.Write(&buf, binary.BigEndian, offsets[i]); err != nil {
			return err
		}
	}

	buf.Write(dataBlob.Bytes())

	out := buf.Bytes()
	sum := crc32.ChecksumIEEE(out)
	binary.BigEndian.PutUint32(out[checksumOffset:checksumOffset+4], sum)

	_, err := w.Write(out)
	return err
}

// Decode reads and validates a container, verifying the magic number
// and checksum before returning the decoded sections.
func Decode(r io.Reader) (*Container, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) < headerSize {
		return nil, fmt.Errorf("container: truncated header (%d bytes)", len(raw))
	}

	magic := binary.BigEndian.Uint32(raw[0:4])
	if magic != Magic {
		return nil, fmt.Errorf("container: bad magic number 0x%08X", magic)
	}
	version := binary.BigEndian.Uint32(raw[4:8])
	flags := binary.BigEndian.Uint32(raw[8:12])
	sectionCount := binary.BigEndian.Uint32(raw[12:16])
	timestamp := binary.BigEndian.Uint64(raw[16:24])
	storedChecksum := binary.BigEndian.Uint32(raw[24:28])

	verify := make([]byte, len(raw))
	copy(verify, raw)
	binary.BigEndian.PutUint32(verify[24:28], 0)
	computed := crc32.ChecksumIEEE(verify)
	if computed != storedChecksum {
		return nil, fmt.Errorf("container: checksum mismatch: stored 0x%08X, computed 0x%08X", storedChecksum, computed)
	}

	dirStart := headerSize
	dirEnd := dirStart + int(sectionCount)*sectionEntrySize
	if dirEnd > len(raw) {
		return nil, fmt.Errorf("container: truncated section directory")
	}
	dataStart := dirEnd

	sections := make([]Section, sectionCount)
	for i := 0; i < int(sectionCount); i++ {
		entry := raw[dirStart+i*sectionEntrySize : dirStart+(i+1)*sectionEntrySize]
		typ := SectionType(binary.BigEndian.Uint32(entry[0:4]))
		size := binary.BigEndian.Uint32(entry[4:8])
		offset := binary.BigEndian.Uint32(entry[8:12])

		start := dataStart + int(offset)
		end := start + int(size)
		if end > len(raw) {
			return nil, fmt.Errorf("container: section %d out of bounds", i)
		}
		data := make([]byte, size)
		copy(data, raw[start:end])
		sections[i] = Section{Type: typ, Data: data}
	}

	return &Container{Version: version, Flags: flags, Timestamp: timestamp, Sections: sections}, nil
}

// Find returns the first section of the given type, if present.
func (c *Container) Find(t SectionType) (Section, bool) {
	for _, s := range c.Sections {
		if s.Type == t {
			return s, true
		}
	}
	return Section{}, false
}
