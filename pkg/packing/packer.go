// Package packing turns per-object attributes into texel values and lays them
// out as RGBA float grids, one texel per selected object.
package packing

import (
	"math/rand/v2"

	"github.com/Faultbox/pivot-painter/pkg/scene"
)

// Env is the per-texture context every packer reads.
type Env struct {
	Selection *scene.Selection
	HDR       bool
	Rand      *rand.Rand
}

// Packer produces the channel values of one object.
//
// Process must return exactly Channels() values. Packers hold no state
// between calls; anything that needs the whole selection goes through
// Normalizer.
type Packer interface {
	Channels() int
	Supports(hdr bool) bool
	Process(env *Env, o *scene.Object) []float32
}

// Normalizer is implemented by packers that rewrite their raw values once
// every object has been processed. values[i] is the output of Process for
// selection index i.
type Normalizer interface {
	Packer
	Normalize(env *Env, values [][]float32)
}

// needsNormalize reports whether p has a second pass to run.
func needsNormalize(p Packer) bool {
	switch n := p.(type) {
	case *composite:
		return n.needsNormalize()
	case Normalizer:
		return true
	}
	return false
}

// support describes HDR and LDR capability in one value.
type support uint8

const (
	supportHDR support = 1 << iota
	supportLDR

	supportBoth = supportHDR | supportLDR
)

func (s support) Supports(hdr bool) bool {
	if hdr {
		return s&supportHDR != 0
	}
	return s&supportLDR != 0
}
