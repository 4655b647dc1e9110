package pngtext

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAPng is returned when the input does not start with the PNG signature.
	ErrNotAPng = errors.New("not a PNG file")
	// ErrTruncatedChunk is matched by every *TruncatedError.
	ErrTruncatedChunk = errors.New("truncated chunk")
	// ErrChunkNotFound is returned when the datastream ends without a card chunk.
	ErrChunkNotFound = errors.New("card chunk not found")
	// ErrChecksum is matched by every *ChecksumError.
	ErrChecksum = errors.New("chunk checksum mismatch")
	// ErrMalformedText is matched by every *MalformedTextError.
	ErrMalformedText = errors.New("malformed text chunk")
)

// TruncatedError reports a chunk whose declared size runs past the end of the buffer.
type TruncatedError struct {
	Offset    int
	Type      string // empty when even the chunk header is incomplete
	Declared  uint64
	Remaining int
}

func (e *TruncatedError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("truncated chunk header at offset %d: %d bytes remaining", e.Offset, e.Remaining)
	}
	return fmt.Sprintf("truncated %s chunk at offset %d: needs %d bytes, %d remaining",
		e.Type, e.Offset, e.Declared, e.Remaining)
}

func (e *TruncatedError) Is(target error) bool { return target == ErrTruncatedChunk }

// ChecksumError reports a chunk whose stored CRC does not match its contents.
type ChecksumError struct {
	Offset   int
	Type     string
	Stored   uint32
	Computed uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("invalid checksum for %s chunk at offset %d: stored %08x, computed %08x",
		e.Type, e.Offset, e.Stored, e.Computed)
}

func (e *ChecksumError) Is(target error) bool { return target == ErrChecksum }

// MalformedTextError reports a card chunk whose compressed text cannot be recovered.
type MalformedTextError struct {
	Type    string
	Keyword string
	Reason  string
}

func (e *MalformedTextError) Error() string {
	return fmt.Sprintf("malformed %s chunk %q: %s", e.Type, e.Keyword, e.Reason)
}

func (e *MalformedTextError) Is(target error) bool { return target == ErrMalformedText }
