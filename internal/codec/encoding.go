// Package codec converts between on-disk bytes and in-memory document text.
//
// Loading detects a byte order mark, decodes the payload and normalizes line
// breaks to LF. Saving reverses the process: optional whitespace transforms,
// line-ending application, encoding and the BOM preamble.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Encoding identifies a byte<->text codec by name.
// Two encodings are the same codec when their canonical names are equal.
type Encoding string

const (
	// EncodingUTF8 is UTF-8 encoding (default).
	EncodingUTF8 Encoding = "utf-8"

	// EncodingUTF16LE is UTF-16 Little Endian.
	EncodingUTF16LE Encoding = "utf-16le"

	// EncodingUTF16BE is UTF-16 Big Endian.
	EncodingUTF16BE Encoding = "utf-16be"

	// EncodingUTF32LE is UTF-32 Little Endian.
	EncodingUTF32LE Encoding = "utf-32le"

	// EncodingUTF32BE is UTF-32 Big Endian.
	EncodingUTF32BE Encoding = "utf-32be"
)

// Errors returned by the codec.
var (
	// ErrUnsupportedEncoding indicates the encoding name cannot be resolved.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrUnrepresentable indicates the text contains characters the target
	// encoding cannot represent.
	ErrUnrepresentable = errors.New("text not representable in encoding")
)

// BOM (Byte Order Mark) tables. These bytes are part of the on-disk format.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// bomTable is ordered so longer marks are tested before the shorter marks
// they start with (FF FE 00 00 before FF FE).
var bomTable = []struct {
	mark []byte
	enc  Encoding
}{
	{bomUTF8, EncodingUTF8},
	{bomUTF32LE, EncodingUTF32LE},
	{bomUTF32BE, EncodingUTF32BE},
	{bomUTF16LE, EncodingUTF16LE},
	{bomUTF16BE, EncodingUTF16BE},
}

// ParseEncoding canonicalizes an encoding name.
// Common aliases of the Unicode encodings map to their canonical tags;
// other names are lowercased and returned unchanged.
func ParseEncoding(name string) Encoding {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "utf-8", "utf8":
		return EncodingUTF8
	case "utf-16le", "utf16le", "utf-16", "unicode":
		return EncodingUTF16LE
	case "utf-16be", "utf16be", "unicodefffe":
		return EncodingUTF16BE
	case "utf-32le", "utf32le", "utf-32":
		return EncodingUTF32LE
	case "utf-32be", "utf32be":
		return EncodingUTF32BE
	}
	return Encoding(n)
}

// String returns the encoding name.
func (e Encoding) String() string {
	if e == "" {
		return string(EncodingUTF8)
	}
	return string(e)
}

// IsUnicode reports whether e is one of the built-in Unicode encodings.
func (e Encoding) IsUnicode() bool {
	switch ParseEncoding(string(e)) {
	case EncodingUTF8, EncodingUTF16LE, EncodingUTF16BE, EncodingUTF32LE, EncodingUTF32BE:
		return true
	}
	return false
}

// Supported reports whether e can be resolved to a codec.
func (e Encoding) Supported() bool {
	_, err := lookup(e)
	return err == nil
}

// Preamble returns the byte order mark written for e, or nil if the
// encoding has none.
func (e Encoding) Preamble() []byte {
	switch ParseEncoding(string(e)) {
	case EncodingUTF8:
		return bomUTF8
	case EncodingUTF16LE:
		return bomUTF16LE
	case EncodingUTF16BE:
		return bomUTF16BE
	case EncodingUTF32LE:
		return bomUTF32LE
	case EncodingUTF32BE:
		return bomUTF32BE
	}
	return nil
}

// DetectBOM inspects the leading bytes of data for a byte order mark.
// It returns the encoding the mark identifies and the length of the mark.
// With no mark it returns UTF-8 and zero.
func DetectBOM(data []byte) (Encoding, int) {
	for _, b := range bomTable {
		if bytes.HasPrefix(data, b.mark) {
			return b.enc, len(b.mark)
		}
	}
	return EncodingUTF8, 0
}

// lookup resolves an encoding to an x/text codec.
// UTF-8 resolves to nil: it is handled without a transformer.
func lookup(e Encoding) (encoding.Encoding, error) {
	switch c := ParseEncoding(string(e)); c {
	case EncodingUTF8:
		return nil, nil
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case EncodingUTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	case EncodingUTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), nil
	default:
		enc, err := htmlindex.Get(string(c))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, c)
		}
		return enc, nil
	}
}

// Decode converts payload bytes (BOM already removed) to text.
// Decoding never fails: invalid sequences become U+FFFD, and an encoding
// that cannot be resolved falls back to lenient UTF-8.
func Decode(data []byte, enc Encoding) string {
	codec, err := lookup(enc)
	if err != nil || codec == nil {
		return decodeUTF8(data)
	}
	out, err := codec.NewDecoder().Bytes(data)
	if err != nil {
		return decodeUTF8(data)
	}
	return string(out)
}

// decodeUTF8 decodes leniently, substituting U+FFFD for invalid sequences.
func decodeUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// Encode converts text to bytes in the given encoding, without a BOM.
func Encode(text string, enc Encoding) ([]byte, error) {
	codec, err := lookup(enc)
	if err != nil {
		return nil, err
	}
	if codec == nil {
		return []byte(text), nil
	}
	out, err := codec.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrUnrepresentable, ParseEncoding(string(enc)), err)
	}
	return out, nil
}
