// Package export writes packed textures to disk: LDR grids as 8-bit images,
// HDR grids as raw float32 data with a YAML header.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/pivot-painter/pkg/packing"
)

// Format is the container used for LDR textures.
type Format string

const (
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
)

// Export errors.
var (
	ErrNoFolder      = errors.New("export: no folder specified")
	ErrFolderMissing = errors.New("export: folder does not exist")
	ErrUnknownFormat = errors.New("export: unknown image format")
	ErrSizeMismatch  = errors.New("export: pixel data does not match texture size")
)

// CheckFolder verifies that dir names an existing directory.
func CheckFolder(dir string) error {
	if dir == "" {
		return ErrNoFolder
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrFolderMissing, dir)
	}
	return nil
}

// Writer saves textures into one folder.
type Writer struct {
	dir    string
	format Format
}

// NewWriter creates a writer for dir. An empty format selects PNG.
func NewWriter(dir string, format Format) (*Writer, error) {
	switch format {
	case "":
		format = FormatPNG
	case FormatPNG, FormatTIFF:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := CheckFolder(dir); err != nil {
		return nil, err
	}
	return &Writer{dir: dir, format: format}, nil
}

// Write saves tex and returns the paths written.
func (w *Writer) Write(tex *packing.Texture) ([]string, error) {
	if len(tex.Pixels) != tex.Size.Texels()*4 {
		return nil, fmt.Errorf("%w: %s: expected %d, got %d", ErrSizeMismatch, tex.Name, tex.Size.Texels()*4, len(tex.Pixels))
	}
	if tex.Spec.HDR {
		return w.writeHDR(tex)
	}

	path := filepath.Join(w.dir, tex.Name+"."+string(w.format))
	if err := writeFile(path, func(f io.Writer) error {
		return encodeLDR(f, ToImage(tex), w.format)
	}); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func encodeLDR(f io.Writer, img image.Image, format Format) error {
	if format == FormatTIFF {
		if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return fmt.Errorf("encoding TIFF: %w", err)
		}
		return nil
	}
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ToImage quantizes tex to 8 bits per channel. Texture rows run bottom to
// top, image rows top to bottom, so rows are flipped.
func ToImage(tex *packing.Texture) *image.NRGBA {
	w, h := tex.Size.Width, tex.Size.Height
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		srcY := h - 1 - y
		for x := range w {
			off := (x + srcY*w) * 4
			px := tex.Pixels[off : off+4]
			img.SetNRGBA(x, y, color.NRGBA{
				R: quantize(px[0]),
				G: quantize(px[1]),
				B: quantize(px[2]),
				A: quantize(px[3]),
			})
		}
	}
	return img
}

func quantize(v float32) uint8 {
	return uint8(math32.Round(math32.Min(math32.Max(v, 0), 1) * 255))
}
