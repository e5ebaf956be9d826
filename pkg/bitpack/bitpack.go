// Package bitpack stores integer indices inside float32 texels so they survive
// half-float storage and texture compression.
//
// An index is biased by 1024 and laid out as a half-float bit pattern widened
// to single precision: bit 15 becomes the sign, bits 10-14 the exponent
// (re-biased from 15 to 127) and bits 0-9 the top of the mantissa. Shaders
// recover the index with the inverse bit unpack, see Decode.
package bitpack

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

// Bias is added to every index before packing so that index 0 has a non-zero
// exponent field.
const Bias = 1024

// MaxIndex is the largest index Encode accepts. Biased values must stay below
// 0x7C00, where the half-float exponent field saturates into Inf/NaN space.
const MaxIndex = 0x7BFF - Bias

// ErrOutOfRange is returned for indices outside [0, MaxIndex].
var ErrOutOfRange = errors.New("bitpack: index out of range")

// RangeError reports the offending index.
type RangeError struct {
	Index int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("bitpack: index %d out of range [0, %d]", e.Index, MaxIndex)
}

// Unwrap allows errors.Is(err, ErrOutOfRange).
func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// Encode packs index into a float32.
func Encode(index int) (float32, error) {
	if index < 0 || index > MaxIndex {
		return 0, &RangeError{Index: index}
	}
	return math32.Float32frombits(Bits(index)), nil
}

// MustEncode is Encode for indices already validated by the caller.
func MustEncode(index int) float32 {
	f, err := Encode(index)
	if err != nil {
		panic(err)
	}
	return f
}

// Bits returns the raw 32-bit pattern Encode reinterprets as a float.
// The index is not range checked.
func Bits(index int) uint32 {
	biased := uint32(index + Bias)
	sign := (biased & 0x8000) << 16

	var exponent uint32
	if biased&0x7FFF != 0 {
		exponent = (((biased >> 10) & 0x1F) - 15 + 127) << 23
	}
	mantissa := (biased & 0x3FF) << 13

	return sign | exponent | mantissa
}

// Decode is the inverse unpack performed by the consuming shader.
func Decode(f float32) int {
	bits := math32.Float32bits(f)

	sign := (bits >> 16) & 0x8000
	var exponent uint32
	if e := (bits >> 23) & 0xFF; e != 0 {
		exponent = ((e - 127 + 15) & 0x1F) << 10
	}
	mantissa := (bits >> 13) & 0x3FF

	return int(sign|exponent|mantissa) - Bias
}
