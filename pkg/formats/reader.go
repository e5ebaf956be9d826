package formats

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/Faultbox/pivot-painter/pkg/encoding"
)

// binReader is a little-endian reader that keeps the first error.
type binReader struct {
	r   *bytes.Reader
	err error
}

func newBinReader(data []byte) *binReader {
	return &binReader{r: bytes.NewReader(data)}
}

func (b *binReader) read(v any) {
	if b.err != nil {
		return
	}
	if err := binary.Read(b.r, binary.LittleEndian, v); err != nil {
		b.err = ErrTruncatedRSMData
	}
}

func (b *binReader) int32() int32 {
	var v int32
	b.read(&v)
	return v
}

func (b *binReader) uint8() uint8 {
	var v uint8
	b.read(&v)
	return v
}

func (b *binReader) float32() float32 {
	var v float32
	b.read(&v)
	return v
}

func (b *binReader) vec3() [3]float32 {
	var v [3]float32
	b.read(&v)
	return v
}

func (b *binReader) skip(n int64) {
	if b.err != nil {
		return
	}
	if n > int64(b.r.Len()) {
		b.err = ErrTruncatedRSMData
		return
	}
	b.r.Seek(n, io.SeekCurrent)
}

// string reads a fixed-length, NUL-padded EUC-KR string.
func (b *binReader) string(length int) string {
	if b.err != nil {
		return ""
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		b.err = ErrTruncatedRSMData
		return ""
	}
	return encoding.DecodeEUCKR(buf)
}

// count reads an element count and checks it against limit.
func (b *binReader) count(limit int32) int {
	n := b.int32()
	if b.err != nil {
		return 0
	}
	if n < 0 || n > limit {
		b.err = ErrInvalidCount
		return 0
	}
	return int(n)
}
