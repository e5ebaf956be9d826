// Package encoding converts the EUC-KR names stored in Ragnarok Online files.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// DecodeEUCKR returns the UTF-8 form of a NUL-terminated EUC-KR name. Plain
// ASCII is returned as is, and bytes that do not decode are kept unchanged.
func DecodeEUCKR(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if isASCII(b) {
		return string(b)
	}
	out, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), b)
	if err != nil || !utf8.Valid(out) {
		return string(b)
	}
	return string(out)
}

// EncodeEUCKR returns the EUC-KR bytes of s, or s itself when it has no
// EUC-KR form.
func EncodeEUCKR(s string) []byte {
	out, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

// NormalizePath lowercases a path and uses forward slashes.
func NormalizePath(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, `\`, "/"))
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
