// Package grf reads files out of Ragnarok Online GRF 0x200 archives, where
// RSM models are usually shipped.
package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/Faultbox/pivot-painter/pkg/encoding"
)

const (
	magic      = "Master of Magic"
	version    = 0x200
	headerSize = 46
	entrySize  = 17
)

const (
	flagFile      = 0x01
	flagEncrypted = 0x06
)

// Archive errors.
var (
	ErrBadMagic  = errors.New("grf: not a GRF archive")
	ErrVersion   = errors.New("grf: unsupported version")
	ErrCorrupt   = errors.New("grf: corrupt archive")
	ErrNotFound  = errors.New("grf: file not found")
	ErrEncrypted = errors.New("grf: encrypted entries are not supported")
)

type header struct {
	Magic       [15]byte
	Key         [15]byte
	TableOffset uint32
	Seed        uint32
	Count       uint32
	Version     uint32
}

// Entry describes one stored file.
type Entry struct {
	Name       string
	Packed     uint32
	Aligned    uint32
	Size       uint32
	Flags      uint8
	DataOffset uint32
}

// Archive is an opened GRF archive.
type Archive struct {
	r       io.ReaderAt
	closer  io.Closer
	entries map[string]Entry
}

// Open opens the archive at path.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	a, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.closer = f
	return a, nil
}

// NewReader reads the file table of an archive held by r.
func NewReader(r io.ReaderAt) (*Archive, error) {
	var h header
	if err := binary.Read(io.NewSectionReader(r, 0, headerSize), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	if string(h.Magic[:]) != magic {
		return nil, ErrBadMagic
	}
	if h.Version != version {
		return nil, fmt.Errorf("%w: 0x%x", ErrVersion, h.Version)
	}

	table, err := readTable(r, int64(h.TableOffset)+headerSize)
	if err != nil {
		return nil, err
	}

	a := &Archive{r: r, entries: make(map[string]Entry)}
	count := int64(h.Count) - int64(h.Seed) - 7
	for i := int64(0); i < count && len(table) > 0; i++ {
		end := bytes.IndexByte(table, 0)
		if end < 0 || end+1+entrySize > len(table) {
			return nil, fmt.Errorf("%w: truncated file table", ErrCorrupt)
		}
		name := encoding.NormalizePath(encoding.DecodeEUCKR(table[:end]))
		raw := table[end+1:]
		e := Entry{
			Name:       name,
			Packed:     binary.LittleEndian.Uint32(raw),
			Aligned:    binary.LittleEndian.Uint32(raw[4:]),
			Size:       binary.LittleEndian.Uint32(raw[8:]),
			Flags:      raw[12],
			DataOffset: binary.LittleEndian.Uint32(raw[13:]),
		}
		table = raw[entrySize:]
		if e.Flags&flagFile != 0 {
			a.entries[name] = e
		}
	}
	return a, nil
}

func readTable(r io.ReaderAt, offset int64) ([]byte, error) {
	var sizes [2]uint32
	if err := binary.Read(io.NewSectionReader(r, offset, 8), binary.LittleEndian, &sizes); err != nil {
		return nil, fmt.Errorf("%w: file table header", ErrCorrupt)
	}
	zr, err := zlib.NewReader(io.NewSectionReader(r, offset+8, int64(sizes[0])))
	if err != nil {
		return nil, fmt.Errorf("%w: file table: %v", ErrCorrupt, err)
	}
	defer zr.Close()
	table := make([]byte, sizes[1])
	if _, err := io.ReadFull(zr, table); err != nil {
		return nil, fmt.Errorf("%w: file table: %v", ErrCorrupt, err)
	}
	return table, nil
}

// Close releases the archive file, if Open created it.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// List returns every stored path, sorted.
func (a *Archive) List() []string {
	names := make([]string, 0, len(a.entries))
	for name := range a.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Contains reports whether path is stored. Paths match case-insensitively
// with either slash.
func (a *Archive) Contains(path string) bool {
	_, ok := a.entries[encoding.NormalizePath(path)]
	return ok
}

// Read returns the contents of path.
func (a *Archive) Read(path string) ([]byte, error) {
	e, ok := a.entries[encoding.NormalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if e.Flags&flagEncrypted != 0 {
		return nil, fmt.Errorf("%w: %s", ErrEncrypted, path)
	}

	data := make([]byte, e.Aligned)
	if _, err := a.r.ReadAt(data, int64(e.DataOffset)+headerSize); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if e.Packed == e.Size {
		if int(e.Size) > len(data) {
			return nil, fmt.Errorf("%w: %s", ErrCorrupt, path)
		}
		return data[:e.Size], nil
	}
	if int(e.Packed) > len(data) {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, path)
	}

	zr, err := zlib.NewReader(bytes.NewReader(data[:e.Packed]))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	defer zr.Close()
	out := make([]byte, e.Size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return out, nil
}
