// Package pngtext locates the character card payload inside a PNG datastream
// by walking its chunks. Pixel data is never decoded.
package pngtext

import (
	"bytes"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("tavern-png")

// CardKeyword is the text chunk keyword that carries a character card.
const CardKeyword = "chara"

// Scanner walks PNG chunks. The zero value checks the signature, ignores
// CRCs and only considers tEXt chunks.
type Scanner struct {
	// VerifyCRC rejects any walked chunk whose stored CRC does not match.
	VerifyCRC bool
	// Extended also accepts the card from iTXt and zTXt chunks.
	Extended bool
}

// Scan returns the text of the first tEXt chunk with the card keyword.
func Scan(b []byte) ([]byte, error) {
	return Scanner{}.Scan(b)
}

// Walk calls fn for every chunk of b with the zero Scanner.
func Walk(b []byte, fn func(Chunk) bool) error {
	return Scanner{}.Walk(b, fn)
}

// Walk checks the signature of b and calls fn for each chunk in stream
// order until fn returns false, the IEND chunk has been visited, or the
// buffer is exhausted. Chunk.Data is only valid during the call to fn.
func (s Scanner) Walk(b []byte, fn func(Chunk) bool) error {
	if len(b) < len(Signature) || string(b[:len(Signature)]) != Signature {
		return ErrNotAPng
	}

	off := len(Signature)
	for off < len(b) {
		c, err := readChunk(b, off)
		if err != nil {
			return err
		}
		if s.VerifyCRC {
			if sum := c.Checksum(); sum != c.CRC {
				return &ChecksumError{Offset: off, Type: c.Type, Stored: c.CRC, Computed: sum}
			}
		}
		log.Debugf("chunk %s at offset %d, %d bytes", c.Type, c.Offset, c.Length)

		if !fn(c) || c.Type == TypeEnd {
			return nil
		}
		off += c.Size()
	}
	return nil
}

// Scan returns a copy of the text carried by the first chunk with the card
// keyword. The result never aliases b.
func (s Scanner) Scan(b []byte) ([]byte, error) {
	var payload []byte
	found := false
	err := s.eachCard(b, func(text []byte) bool {
		payload = bytes.Clone(text)
		found = true
		return false
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrChunkNotFound
	}
	return payload, nil
}

// ScanAll returns copies of every card payload in stream order. It fails
// with ErrChunkNotFound when there is none.
func (s Scanner) ScanAll(b []byte) ([][]byte, error) {
	var payloads [][]byte
	err := s.eachCard(b, func(text []byte) bool {
		payloads = append(payloads, bytes.Clone(text))
		return true
	})
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, ErrChunkNotFound
	}
	return payloads, nil
}

// Text returns every keyword/text pair whose chunk type the scanner accepts,
// in stream order. Compressed entries that cannot be inflated are skipped.
func (s Scanner) Text(b []byte) ([]TextEntry, error) {
	var entries []TextEntry
	err := s.Walk(b, func(c Chunk) bool {
		if !s.accepts(c.Type) {
			return true
		}
		keyword, rest, ok := splitKeyword(c)
		if !ok {
			return true
		}
		text, err := textBody(c, keyword, rest)
		if err != nil {
			log.Warnf("skipping %s chunk at offset %d: %v", c.Type, c.Offset, err)
			return true
		}
		entries = append(entries, TextEntry{Keyword: keyword, Text: bytes.Clone(text)})
		return true
	})
	return entries, err
}

// TextEntry is a keyword/text pair carried by a textual chunk.
type TextEntry struct {
	Keyword string
	Text    []byte
}

func (s Scanner) accepts(chunkType string) bool {
	switch chunkType {
	case TypeText:
		return true
	case TypeCompressedText, TypeIntlText:
		return s.Extended
	}
	return false
}

// eachCard calls fn with the text of every accepted chunk carrying the card
// keyword. A card chunk whose text cannot be recovered ends the walk with
// an error.
func (s Scanner) eachCard(b []byte, fn func(text []byte) bool) error {
	var bodyErr error
	err := s.Walk(b, func(c Chunk) bool {
		if !s.accepts(c.Type) {
			return true
		}
		keyword, rest, ok := splitKeyword(c)
		if !ok {
			log.Debugf("%s chunk at offset %d has no keyword terminator", c.Type, c.Offset)
			return true
		}
		if keyword != CardKeyword {
			return true
		}
		text, err := textBody(c, keyword, rest)
		if err != nil {
			bodyErr = err
			return false
		}
		return fn(text)
	})
	if err != nil {
		return err
	}
	return bodyErr
}
