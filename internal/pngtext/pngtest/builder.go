// Package pngtest assembles PNG datastreams chunk by chunk for tests.
package pngtest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/klauspost/compress/zlib"

	"github.com/arcanaland/tavern/internal/pngtext"
)

// Builder accumulates a PNG datastream. Methods chain.
type Builder struct {
	buf bytes.Buffer
}

// New starts a datastream with the signature and a 1x1 RGBA IHDR chunk.
func New() *Builder {
	b := Bare()
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 1)
	binary.BigEndian.PutUint32(ihdr[4:8], 1)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // truecolor with alpha
	return b.Chunk("IHDR", ihdr)
}

// Bare starts a datastream with only the signature.
func Bare() *Builder {
	b := &Builder{}
	b.buf.WriteString(pngtext.Signature)
	return b
}

// Chunk appends a chunk with a correct CRC.
func (b *Builder) Chunk(typ string, data []byte) *Builder {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(len(data)))
	copy(hdr[4:8], typ)
	b.buf.Write(hdr[:])
	b.buf.Write(data)

	h := crc32.NewIEEE()
	h.Write(hdr[4:8])
	h.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], h.Sum32())
	b.buf.Write(sum[:])
	return b
}

// Raw appends bytes verbatim.
func (b *Builder) Raw(p []byte) *Builder {
	b.buf.Write(p)
	return b
}

// Text appends a tEXt chunk.
func (b *Builder) Text(keyword, text string) *Builder {
	return b.Chunk(pngtext.TypeText, append([]byte(keyword+"\x00"), text...))
}

// CompressedText appends a zTXt chunk.
func (b *Builder) CompressedText(keyword, text string) *Builder {
	data := append([]byte(keyword+"\x00"), 0)
	return b.Chunk(pngtext.TypeCompressedText, append(data, deflate(text)...))
}

// IntlText appends an iTXt chunk with empty language tag and translated keyword.
func (b *Builder) IntlText(keyword, text string, compressed bool) *Builder {
	data := []byte(keyword + "\x00")
	if compressed {
		data = append(data, 1, 0, 0, 0)
		data = append(data, deflate(text)...)
	} else {
		data = append(data, 0, 0, 0, 0)
		data = append(data, text...)
	}
	return b.Chunk(pngtext.TypeIntlText, data)
}

// End appends the IEND chunk.
func (b *Builder) End() *Builder {
	return b.Chunk(pngtext.TypeEnd, nil)
}

// Bytes returns a copy of the datastream built so far.
func (b *Builder) Bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}

func deflate(text string) []byte {
	var out bytes.Buffer
	w := zlib.NewWriter(&out)
	w.Write([]byte(text))
	w.Close()
	return out.Bytes()
}
