package codec

import (
	"fmt"
	"strings"
)

// LineEnding represents the line ending style.
type LineEnding string

const (
	// LineEndingLF is Unix-style line ending (\n).
	LineEndingLF LineEnding = "lf"

	// LineEndingCRLF is Windows-style line ending (\r\n).
	LineEndingCRLF LineEnding = "crlf"

	// LineEndingCR is old Mac-style line ending (\r).
	LineEndingCR LineEnding = "cr"
)

// ParseLineEnding parses a line ending name ("lf", "crlf", "cr").
func ParseLineEnding(s string) (LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lf", "\n", "unix":
		return LineEndingLF, nil
	case "crlf", "\r\n", "windows", "dos":
		return LineEndingCRLF, nil
	case "cr", "\r", "mac":
		return LineEndingCR, nil
	}
	return "", fmt.Errorf("unknown line ending %q", s)
}

// Sequence returns the characters written for the line ending.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// String returns the display name of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingCRLF:
		return "CRLF"
	case LineEndingCR:
		return "CR"
	default:
		return "LF"
	}
}

// DetectLineEnding detects the dominant line ending in text.
// A CR immediately followed by LF counts once as CRLF. Ties favor CRLF,
// then CR; text without line breaks reports LF.
func DetectLineEnding(text string) LineEnding {
	var lf, crlf, cr int

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				crlf++
				i++ // Skip the \n
			} else {
				cr++
			}
		case '\n':
			lf++
		}
	}

	if crlf >= lf && crlf >= cr && crlf > 0 {
		return LineEndingCRLF
	}
	if cr >= lf && cr > 0 {
		return LineEndingCR
	}
	return LineEndingLF
}

// NormalizeToLF converts CRLF and lone CR line breaks to LF.
func NormalizeToLF(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// ApplyLineEnding converts LF-normalized text to the given line ending.
func ApplyLineEnding(text string, le LineEnding) string {
	switch le {
	case LineEndingCRLF:
		return strings.ReplaceAll(text, "\n", "\r\n")
	case LineEndingCR:
		return strings.ReplaceAll(text, "\n", "\r")
	default:
		return text
	}
}

// CountLines counts the lines in LF-normalized text.
// A trailing newline does not start an extra line.
func CountLines(text string) int {
	if text == "" {
		return 0
	}
	lines := strings.Count(text, "\n") + 1
	if strings.HasSuffix(text, "\n") {
		lines--
	}
	return lines
}
