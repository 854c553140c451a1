// Package embedcache loads and stores the (label, vector) pool that feeds
// projection builds.
//
// Two formats are supported, chosen by file extension:
//
//   - .json: either an array of {"label": ..., "vector": [...]} objects or an
//     object mapping label to vector
//   - .kec: CRC frames (see package persistence), one entry per frame, with
//     vectors stored as IEEE 754 half-precision floats
//
// Loaded entries are de-duplicated by label (last one wins) and sorted by
// label, so downstream seeded shuffles do not depend on file order.
package embedcache

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/x448/float16"

	"github.com/sanonone/kektorspace/pkg/core/projection"
	"github.com/sanonone/kektorspace/pkg/persistence"
)

// ErrUnsupportedFormat is returned for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported embedding cache format")

// ErrLabelTooLong is returned by Save for labels longer than MaxLabelLen bytes.
var ErrLabelTooLong = errors.New("label too long for binary cache")

// MaxLabelLen is the longest label, in bytes, a .kec frame can hold.
const MaxLabelLen = math.MaxUint16

// ErrMalformedEntry is returned when a binary frame cannot be decoded.
var ErrMalformedEntry = errors.New("malformed embedding cache entry")

type jsonEntry struct {
	Label  string    `json:"label"`
	Vector []float32 `json:"vector"`
}

// Load reads a cache file.
func Load(path string) ([]projection.Entry, error) {
	var (
		entries []projection.Entry
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		entries, err = loadJSON(path)
	case ".kec":
		entries, err = loadFrames(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	entries = normalize(entries)
	slog.Info("[Cache] Loaded embeddings", "path", path, "entries", len(entries))
	return entries, nil
}

// Save writes entries to path in the binary .kec format. Nothing is written
// if any label exceeds MaxLabelLen.
func Save(path string, entries []projection.Entry) error {
	for _, e := range entries {
		if len(e.Label) > MaxLabelLen {
			return fmt.Errorf("%w: %d bytes starting %q", ErrLabelTooLong, len(e.Label), e.Label[:16])
		}
	}
	return persistence.WriteFile(path, func(fw *persistence.FrameWriter) error {
		for _, e := range entries {
			if err := fw.WriteFrame(persistence.OpEmbedding, encodeEntry(e)); err != nil {
				return fmt.Errorf("failed to write entry %q: %w", e.Label, err)
			}
		}
		return nil
	})
}

func loadJSON(path string) ([]projection.Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding cache: %w", err)
	}

	var list []jsonEntry
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]projection.Entry, len(list))
		for i, e := range list {
			out[i] = projection.Entry{Label: e.Label, Vector: e.Vector}
		}
		return out, nil
	}

	var byLabel map[string][]float32
	if err := json.Unmarshal(raw, &byLabel); err != nil {
		return nil, fmt.Errorf("failed to decode embedding cache %s: %w", path, err)
	}
	out := make([]projection.Entry, 0, len(byLabel))
	for l, v := range byLabel {
		out = append(out, projection.Entry{Label: l, Vector: v})
	}
	return out, nil
}

func loadFrames(path string) ([]projection.Entry, error) {
	var out []projection.Entry
	err := persistence.ReadFile(path, func(op persistence.OpCode, payload []byte) error {
		if op != persistence.OpEmbedding {
			return nil
		}
		e, err := decodeEntry(payload)
		if err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Payload layout: [labelLen u16][label][dims u32][dims × float16 bits u16].
func encodeEntry(e projection.Entry) []byte {
	buf := make([]byte, 2+len(e.Label)+4+2*len(e.Vector))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(e.Label)))
	off := 2 + copy(buf[2:], e.Label)
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(e.Vector)))
	off += 4
	for _, v := range e.Vector {
		binary.LittleEndian.PutUint16(buf[off:off+2], float16.Fromfloat32(v).Bits())
		off += 2
	}
	return buf
}

func decodeEntry(p []byte) (projection.Entry, error) {
	if len(p) < 2 {
		return projection.Entry{}, ErrMalformedEntry
	}
	ll := int(binary.LittleEndian.Uint16(p[0:2]))
	if len(p) < 2+ll+4 {
		return projection.Entry{}, ErrMalformedEntry
	}
	label := string(p[2 : 2+ll])
	off := 2 + ll
	dims := int(binary.LittleEndian.Uint32(p[off : off+4]))
	off += 4
	if len(p)-off != 2*dims {
		return projection.Entry{}, fmt.Errorf("%w: %q declares %d dims", ErrMalformedEntry, label, dims)
	}
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = float16.Frombits(binary.LittleEndian.Uint16(p[off : off+2])).Float32()
		off += 2
	}
	return projection.Entry{Label: label, Vector: vec}, nil
}

func normalize(entries []projection.Entry) []projection.Entry {
	pos := make(map[string]int, len(entries))
	out := make([]projection.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Label == "" {
			continue
		}
		if i, ok := pos[e.Label]; ok {
			out[i] = e
			continue
		}
		pos[e.Label] = len(out)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
