package codec

import (
	"bytes"
	"errors"
	"testing"
)

func TestDetectBOM(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    Encoding
		bomLen  int
	}{
		{
			name:    "empty",
			content: []byte{},
			want:    EncodingUTF8,
			bomLen:  0,
		},
		{
			name:    "no BOM",
			content: []byte("Hello"),
			want:    EncodingUTF8,
			bomLen:  0,
		},
		{
			name:    "UTF-8 BOM",
			content: append([]byte{0xEF, 0xBB, 0xBF}, []byte("Hello")...),
			want:    EncodingUTF8,
			bomLen:  3,
		},
		{
			name:    "UTF-32 LE BOM",
			content: []byte{0xFF, 0xFE, 0x00, 0x00, 0x48, 0x00, 0x00, 0x00},
			want:    EncodingUTF32LE,
			bomLen:  4,
		},
		{
			name:    "UTF-32 BE BOM",
			content: []byte{0x00, 0x00, 0xFE, 0xFF, 0x00, 0x00, 0x00, 0x48},
			want:    EncodingUTF32BE,
			bomLen:  4,
		},
		{
			name:    "UTF-16 LE BOM",
			content: []byte{0xFF, 0xFE, 0x48, 0x00},
			want:    EncodingUTF16LE,
			bomLen:  2,
		},
		{
			name:    "UTF-16 BE BOM",
			content: []byte{0xFE, 0xFF, 0x00, 0x48},
			want:    EncodingUTF16BE,
			bomLen:  2,
		},
		{
			name:    "truncated UTF-8 BOM",
			content: []byte{0xEF, 0xBB},
			want:    EncodingUTF8,
			bomLen:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := DetectBOM(tt.content)
			if got != tt.want || n != tt.bomLen {
				t.Errorf("DetectBOM() = (%v, %d), want (%v, %d)", got, n, tt.want, tt.bomLen)
			}
		})
	}
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in   string
		want Encoding
	}{
		{"", EncodingUTF8},
		{"UTF8", EncodingUTF8},
		{" utf-16 ", EncodingUTF16LE},
		{"UTF-16BE", EncodingUTF16BE},
		{"utf-32", EncodingUTF32LE},
		{"Windows-1252", Encoding("windows-1252")},
	}

	for _, tt := range tests {
		if got := ParseEncoding(tt.in); got != tt.want {
			t.Errorf("ParseEncoding(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncoding_Supported(t *testing.T) {
	for _, enc := range []Encoding{EncodingUTF8, EncodingUTF16LE, EncodingUTF32BE, "windows-1252", "shift_jis"} {
		if !enc.Supported() {
			t.Errorf("%s should be supported", enc)
		}
	}
	if Encoding("no-such-codec").Supported() {
		t.Error("unknown encoding should not be supported")
	}
}

func TestEncoding_Preamble(t *testing.T) {
	if got := EncodingUTF16LE.Preamble(); !bytes.Equal(got, []byte{0xFF, 0xFE}) {
		t.Errorf("UTF-16LE preamble = % X", got)
	}
	if got := EncodingUTF32LE.Preamble(); !bytes.Equal(got, []byte{0xFF, 0xFE, 0x00, 0x00}) {
		t.Errorf("UTF-32LE preamble = % X", got)
	}
	if got := Encoding("windows-1252").Preamble(); got != nil {
		t.Errorf("windows-1252 preamble = % X, want none", got)
	}
}

func TestDecode_InvalidUTF8IsLenient(t *testing.T) {
	got := Decode([]byte{'a', 0xFF, 'b'}, EncodingUTF8)
	if got != "a�b" {
		t.Errorf("Decode() = %q, want %q", got, "a�b")
	}
}

func TestDecode_UnknownEncodingFallsBack(t *testing.T) {
	got := Decode([]byte("plain"), "no-such-codec")
	if got != "plain" {
		t.Errorf("Decode() = %q, want %q", got, "plain")
	}
}

func TestDecode_NamedEncoding(t *testing.T) {
	// 0xE9 is 'é' in windows-1252.
	got := Decode([]byte{'c', 'a', 'f', 0xE9}, "windows-1252")
	if got != "café" {
		t.Errorf("Decode() = %q, want %q", got, "café")
	}
}

func TestEncode(t *testing.T) {
	got, err := Encode("hi", EncodingUTF16BE)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(got, []byte{0x00, 'h', 0x00, 'i'}) {
		t.Errorf("Encode() = % X", got)
	}

	got, err = Encode("hi", EncodingUTF32LE)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(got, []byte{'h', 0, 0, 0, 'i', 0, 0, 0}) {
		t.Errorf("Encode() = % X", got)
	}
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := Encode("x", "no-such-codec")
	if !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("err = %v, want ErrUnsupportedEncoding", err)
	}
}

func TestEncode_Unrepresentable(t *testing.T) {
	_, err := Encode("日本", "windows-1252")
	if !errors.Is(err, ErrUnrepresentable) {
		t.Errorf("err = %v, want ErrUnrepresentable", err)
	}
}
