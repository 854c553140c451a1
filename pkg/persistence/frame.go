// Package persistence implements the CRC-protected binary frame format shared
// by embedding cache files and selection snapshots.
package persistence

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// Frame layout: [Magic(1)][OpCode(1)][Length(4)][CRC32(4)][Payload(Length)],
// little endian, CRC32 (IEEE) over the payload only.
const (
	MagicByte  = 0xA5
	HeaderSize = 10
)

// OpCode tags the payload type of a frame.
type OpCode byte

const (
	// OpEmbedding is one (label, float16 vector) cache entry.
	OpEmbedding OpCode = 0x01
	// OpSelection is a JSON-encoded selection snapshot.
	OpSelection OpCode = 0x02
)

var (
	// ErrInvalidMagic means the stream is not positioned at a frame.
	ErrInvalidMagic = errors.New("invalid magic byte")
	// ErrChecksumMismatch means the payload was corrupted.
	ErrChecksumMismatch = errors.New("crc32 checksum mismatch")
	// ErrIncompleteFrame means the file ends inside a frame, typically after
	// an interrupted write.
	ErrIncompleteFrame = errors.New("incomplete frame")
)

// FrameWriter writes frames to an underlying writer.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter wraps w. Callers writing to files should pass a buffered writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame writes payload as one frame tagged with op.
func (fw *FrameWriter) WriteFrame(op OpCode, payload []byte) error {
	header := make([]byte, HeaderSize)
	header[0] = MagicByte
	header[1] = byte(op)
	binary.LittleEndian.PutUint32(header[2:6], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[6:10], crc32.ChecksumIEEE(payload))

	if _, err := fw.w.Write(header); err != nil {
		return err
	}
	if _, err := fw.w.Write(payload); err != nil {
		return err
	}
	return nil
}

// ReadFrame reads the next frame from the reader, validating the magic byte
// and the CRC32 checksum. It returns io.EOF only at a clean frame boundary.
func ReadFrame(r io.Reader) (OpCode, []byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, ErrIncompleteFrame
	}
	if header[0] != MagicByte {
		return 0, nil, ErrInvalidMagic
	}

	op := OpCode(header[1])
	length := binary.LittleEndian.Uint32(header[2:6])
	expectedCRC := binary.LittleEndian.Uint32(header[6:10])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, ErrIncompleteFrame
	}
	if crc32.ChecksumIEEE(payload) != expectedCRC {
		return 0, nil, ErrChecksumMismatch
	}
	return op, payload, nil
}

// WriteFile writes frames produced by fill to path atomically: the data goes
// to a temporary file that replaces path only after a successful sync.
func WriteFile(path string, fill func(fw *FrameWriter) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	bw := bufio.NewWriter(f)
	if err := fill(NewFrameWriter(bw)); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to flush %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// ReadFile calls fn for every frame in path, stopping at the first error.
func ReadFile(path string, fn func(op OpCode, payload []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	for {
		op, payload, err := ReadFrame(br)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := fn(op, payload); err != nil {
			return err
		}
	}
}
