package pngtext

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Signature is the 8-byte magic every PNG datastream starts with.
// 89 50 4E 47 0D 0A 1A 0A
const Signature = "\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"

// Chunk types the scanner cares about.
const (
	TypeText           = "tEXt"
	TypeCompressedText = "zTXt"
	TypeIntlText       = "iTXt"
	TypeEnd            = "IEND"
)

// chunkOverhead is length + type + CRC.
const chunkOverhead = 12

// Each chunk starts with a uint32 length (big endian), then 4 byte type,
// then data and finally the CRC32 of type and data.
type Chunk struct {
	Offset int    // offset of the length field in the datastream
	Length uint32 // chunk data length
	Type   string // chunk type
	Data   []byte // chunk data, aliases the scanned buffer
	CRC    uint32 // CRC32 as stored in the file
}

// Size is the number of bytes the chunk occupies on the wire.
func (c Chunk) Size() int {
	return chunkOverhead + int(c.Length)
}

// Checksum computes the CRC32 of the chunk's type and data.
func (c Chunk) Checksum() uint32 {
	h := crc32.NewIEEE()
	h.Write([]byte(c.Type))
	h.Write(c.Data)
	return h.Sum32()
}

// IsText reports whether the chunk is one of the PNG textual chunk types.
func (c Chunk) IsText() bool {
	switch c.Type {
	case TypeText, TypeCompressedText, TypeIntlText:
		return true
	}
	return false
}

// Keyword returns the keyword of a textual chunk. ok is false for other
// chunk types and for text chunks without a keyword terminator.
func (c Chunk) Keyword() (keyword string, ok bool) {
	if !c.IsText() {
		return "", false
	}
	keyword, _, ok = splitKeyword(c)
	return keyword, ok
}

// readChunk reads the chunk starting at off. It never reads past b.
func readChunk(b []byte, off int) (Chunk, error) {
	remaining := len(b) - off
	if remaining < 8 {
		return Chunk{}, &TruncatedError{Offset: off, Declared: 8, Remaining: remaining}
	}

	c := Chunk{
		Offset: off,
		Length: binary.BigEndian.Uint32(b[off : off+4]),
		Type:   string(b[off+4 : off+8]),
	}

	// Compare in uint64 so a huge declared length cannot overflow.
	if uint64(c.Length)+chunkOverhead > uint64(remaining) {
		return Chunk{}, &TruncatedError{
			Offset:    off,
			Type:      c.Type,
			Declared:  uint64(c.Length) + chunkOverhead,
			Remaining: remaining,
		}
	}

	dataStart := off + 8
	dataEnd := dataStart + int(c.Length)
	c.Data = b[dataStart:dataEnd:dataEnd]
	c.CRC = binary.BigEndian.Uint32(b[dataEnd : dataEnd+4])
	return c, nil
}

// splitKeyword returns the keyword of a textual chunk and the bytes that
// follow its terminator. ok is false when the keyword is not terminated.
func splitKeyword(c Chunk) (keyword string, rest []byte, ok bool) {
	idx := bytes.IndexByte(c.Data, 0)
	if idx < 0 {
		return "", nil, false
	}
	return string(c.Data[:idx]), c.Data[idx+1:], true
}

// textBody decodes what follows the keyword of a textual chunk. Compressed
// text is inflated into a fresh buffer.
func textBody(c Chunk, keyword string, rest []byte) ([]byte, error) {
	malformed := func(reason string) error {
		return &MalformedTextError{Type: c.Type, Keyword: keyword, Reason: reason}
	}

	switch c.Type {
	case TypeText:
		return rest, nil
	case TypeCompressedText:
		// Compression method byte, then a zlib stream.
		if len(rest) < 1 {
			return nil, malformed("missing compression method")
		}
		if rest[0] != 0 {
			return nil, malformed("unknown compression method")
		}
		text, err := inflate(rest[1:])
		if err != nil {
			return nil, malformed(err.Error())
		}
		return text, nil
	case TypeIntlText:
		// Compression flag, compression method, language tag\0,
		// translated keyword\0, text.
		if len(rest) < 2 {
			return nil, malformed("missing compression fields")
		}
		compressed, method := rest[0] == 1, rest[1]
		rest = rest[2:]
		for i := 0; i < 2; i++ {
			end := bytes.IndexByte(rest, 0)
			if end < 0 {
				return nil, malformed("unterminated language tag")
			}
			rest = rest[end+1:]
		}
		if !compressed {
			return rest, nil
		}
		if method != 0 {
			return nil, malformed("unknown compression method")
		}
		text, err := inflate(rest)
		if err != nil {
			return nil, malformed(err.Error())
		}
		return text, nil
	}
	return nil, malformed("not a text chunk")
}

func inflate(data []byte) ([]byte, error) {
	z, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer z.Close()
	return io.ReadAll(z)
}
