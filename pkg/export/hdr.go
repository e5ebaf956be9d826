package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/pivot-painter/pkg/packing"
)

// HDRHeader describes a raw float texture.
type HDRHeader struct {
	Name     string `yaml:"name"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Channels int    `yaml:"channels"`
	HDR      bool   `yaml:"hdr"`
	// Data is the raw file, relative to the header.
	Data string `yaml:"data"`
	// Layout documents the byte order and row order of Data.
	Layout string `yaml:"layout"`
}

const rawLayout = "float32-le, rows bottom to top"

// writeHDR stores <name>.raw and its <name>.yaml header.
func (w *Writer) writeHDR(tex *packing.Texture) ([]string, error) {
	raw := filepath.Join(w.dir, tex.Name+".raw")
	if err := writeFile(raw, func(f io.Writer) error {
		return WriteRaw(f, tex.Pixels)
	}); err != nil {
		return nil, err
	}

	header := HDRHeader{
		Name:     tex.Name,
		Width:    tex.Size.Width,
		Height:   tex.Size.Height,
		Channels: 4,
		HDR:      true,
		Data:     filepath.Base(raw),
		Layout:   rawLayout,
	}
	path := filepath.Join(w.dir, tex.Name+".yaml")
	if err := writeFile(path, func(f io.Writer) error {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err := enc.Encode(header); err != nil {
			return fmt.Errorf("encoding header: %w", err)
		}
		return enc.Close()
	}); err != nil {
		return nil, err
	}
	return []string{path, raw}, nil
}

// WriteRaw writes pixels as little-endian float32 values.
func WriteRaw(w io.Writer, pixels []float32) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, pixels); err != nil {
		return fmt.Errorf("writing raw data: %w", err)
	}
	return bw.Flush()
}

// ReadHDR loads a texture written by Writer from its header path.
func ReadHDR(headerPath string) (HDRHeader, []float32, error) {
	data, err := os.ReadFile(headerPath)
	if err != nil {
		return HDRHeader{}, nil, fmt.Errorf("reading header: %w", err)
	}
	var header HDRHeader
	if err := yaml.Unmarshal(data, &header); err != nil {
		return HDRHeader{}, nil, fmt.Errorf("parsing header: %w", err)
	}

	f, err := os.Open(filepath.Join(filepath.Dir(headerPath), header.Data))
	if err != nil {
		return header, nil, fmt.Errorf("opening raw data: %w", err)
	}
	defer f.Close()

	pixels := make([]float32, header.Width*header.Height*header.Channels)
	if err := binary.Read(bufio.NewReader(f), binary.LittleEndian, pixels); err != nil {
		return header, nil, fmt.Errorf("%w: %s: %w", ErrSizeMismatch, header.Data, err)
	}
	return header, pixels, nil
}
