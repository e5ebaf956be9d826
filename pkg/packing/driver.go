package packing

import (
	"fmt"
	"math/rand/v2"

	"github.com/Faultbox/pivot-painter/pkg/layout"
	"github.com/Faultbox/pivot-painter/pkg/scene"
)

// Unwritten is the initial value of every channel.
const Unwritten = 1.0

// Texture is one packed RGBA float grid.
type Texture struct {
	Name string
	Spec TextureSpec
	Size layout.Size
	// Pixels holds Size.Texels()*4 floats, row-major with the bottom row
	// first. Texels past the selection keep Unwritten.
	Pixels []float32
}

// Texel returns the four channels stored for selection index i.
func (t *Texture) Texel(i int) [4]float32 {
	off := t.Size.PixelOffset(i)
	return [4]float32(t.Pixels[off : off+4])
}

// Options configures Build.
type Options struct {
	// Seed feeds the random packers; 0 draws a new seed for every run.
	Seed uint64
}

// TextureName is <first object>_<rgb suffix>[_<alpha suffix>][_HDR].
func TextureName(sel *scene.Selection, rgb, alpha Option, hdr bool) string {
	name := sel.At(0).Name + "_" + rgb.Suffix
	if !rgb.RGBA {
		name += "_" + alpha.Suffix
	}
	if hdr {
		name += "_HDR"
	}
	return name
}

// Build packs every texture that is not skipped. The textures are checked
// as in Validate first and nothing is returned unless all of them are valid.
func Build(sel *scene.Selection, specs []TextureSpec, opts Options) ([]*Texture, error) {
	if _, err := checkTextures(sel, specs); err != nil {
		return nil, err
	}
	size, err := layout.Dimensions(sel.Len())
	if err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	var textures []*Texture
	for i, spec := range specs {
		if spec.Skipped() {
			continue
		}
		rgb, alpha, err := spec.options()
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i+1, err)
		}
		env := &Env{
			Selection: sel,
			HDR:       spec.HDR,
			Rand:      rand.New(rand.NewPCG(seed, uint64(i))),
		}
		textures = append(textures, &Texture{
			Name:   TextureName(sel, rgb, alpha, spec.HDR),
			Spec:   spec,
			Size:   size,
			Pixels: pack(env, size, rgb, alpha),
		})
	}
	return textures, nil
}

// pack runs both passes for one texture and writes the pixel grid.
func pack(env *Env, size layout.Size, rgb, alpha Option) []float32 {
	objects := env.Selection.Objects()

	colors := make([][]float32, len(objects))
	var alphas [][]float32
	if !rgb.RGBA {
		alphas = make([][]float32, len(objects))
	}
	for i, o := range objects {
		colors[i] = rgb.Packer.Process(env, o)
		if alphas != nil {
			alphas[i] = alpha.Packer.Process(env, o)
		}
	}

	normalize(env, rgb.Packer, colors)
	if alphas != nil {
		normalize(env, alpha.Packer, alphas)
	}

	pixels := make([]float32, size.Texels()*4)
	for i := range pixels {
		pixels[i] = Unwritten
	}
	for i := range objects {
		off := size.PixelOffset(i)
		copy(pixels[off:off+3], colors[i])
		if alphas != nil {
			pixels[off+3] = alphas[i][0]
		} else {
			pixels[off+3] = colors[i][3]
		}
	}
	return pixels
}

func normalize(env *Env, p Packer, values [][]float32) {
	if !needsNormalize(p) {
		return
	}
	p.(Normalizer).Normalize(env, values)
}

// AssignUVs points every face corner of each selected object at the center of
// its texel, in the named UV layer.
func AssignUVs(sel *scene.Selection, size layout.Size, layer string) {
	for i, o := range sel.Objects() {
		if !o.IsMesh() {
			continue
		}
		uv := size.UV(i)
		l := o.EnsureUVLayer(layer)
		for j := range l.UVs {
			l.UVs[j] = uv
		}
	}
}
