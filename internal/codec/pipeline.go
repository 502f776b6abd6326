package codec

import (
	"strings"
)

// Format describes how a document's text is laid out on disk.
type Format struct {
	// Encoding is the character encoding.
	Encoding Encoding

	// HasBOM indicates a byte order mark is present on disk.
	HasBOM bool

	// LineEnding is the line ending style applied on save.
	LineEnding LineEnding
}

// DefaultFormat returns UTF-8 without BOM and LF line endings.
func DefaultFormat() Format {
	return Format{
		Encoding:   EncodingUTF8,
		LineEnding: LineEndingLF,
	}
}

// Result is the outcome of loading bytes.
type Result struct {
	// Text is the decoded content with line breaks normalized to LF.
	Text string

	Format
}

// SaveOptions holds the optional pre-save transforms. Both are off by default.
type SaveOptions struct {
	// TrimTrailingWhitespace strips spaces and tabs before each line break.
	TrimTrailingWhitespace bool

	// EnsureFinalNewline appends a trailing LF to non-empty text lacking one.
	EnsureFinalNewline bool
}

// Load decodes file content.
// A BOM selects the encoding; without one the content is decoded as lenient
// UTF-8. The dominant line ending is recorded and the text normalized to LF.
func Load(data []byte) Result {
	return LoadAs(data, "")
}

// LoadAs decodes file content using enc when no BOM is present.
// An encoding that cannot be resolved falls back to UTF-8.
func LoadAs(data []byte, enc Encoding) Result {
	if len(data) == 0 {
		return Result{Format: DefaultFormat()}
	}

	detected, bomLen := DetectBOM(data)
	format := Format{Encoding: detected, HasBOM: bomLen > 0}
	if bomLen == 0 && enc != "" {
		if e := ParseEncoding(string(enc)); e.Supported() {
			format.Encoding = e
		}
	}

	text := Decode(data[bomLen:], format.Encoding)
	format.LineEnding = DetectLineEnding(text)

	return Result{
		Text:   NormalizeToLF(text),
		Format: format,
	}
}

// Save encodes LF-normalized text for writing to disk.
// An empty encoding saves as UTF-8 without a BOM.
func Save(text string, format Format, opts SaveOptions) ([]byte, error) {
	enc := format.Encoding
	hasBOM := format.HasBOM
	if enc == "" {
		enc = EncodingUTF8
		hasBOM = false
	}

	text = NormalizeToLF(text)
	// The final newline goes first so a trailing last line is trimmed too.
	if opts.EnsureFinalNewline {
		text = EnsureFinalNewline(text)
	}
	if opts.TrimTrailingWhitespace {
		text = TrimTrailingWhitespace(text)
	}
	text = ApplyLineEnding(text, format.LineEnding)

	payload, err := Encode(text, enc)
	if err != nil {
		return nil, err
	}
	if !hasBOM {
		return payload, nil
	}

	preamble := enc.Preamble()
	out := make([]byte, 0, len(preamble)+len(payload))
	out = append(out, preamble...)
	return append(out, payload...), nil
}

// TrimTrailingWhitespace removes spaces and tabs immediately before each LF.
func TrimTrailingWhitespace(text string) string {
	if !strings.Contains(text, " \n") && !strings.Contains(text, "\t\n") {
		return text
	}
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines)-1; i++ {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.Join(lines, "\n")
}

// EnsureFinalNewline appends LF to non-empty text that does not end with one.
func EnsureFinalNewline(text string) string {
	if text == "" || strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}
