package search

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Direction is the scan direction.
type Direction int

const (
	// Forward scans towards the end of the text.
	Forward Direction = iota
	// Backward scans towards the start of the text.
	Backward
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Options controls matching.
type Options struct {
	CaseSensitive bool
	WholeWord     bool
	UseRegex      bool
	WrapAround    bool
}

// Match is a matched byte range.
type Match struct {
	Start  int
	Length int
}

// End returns the offset just past the match.
func (m Match) End() int {
	return m.Start + m.Length
}

// Text returns the matched text.
func (m Match) Text(text string) string {
	return text[m.Start:m.End()]
}

// Selection is the caller's current selection, typically the previous match.
type Selection = Match

// Validate reports why query cannot be used with opts. Plain queries are
// always valid.
func Validate(query string, opts Options) error {
	if !opts.UseRegex || query == "" {
		return nil
	}
	_, err := compile(query, opts.CaseSensitive)
	return err
}

// FindNext searches forward from cursor.
func FindNext(text, query string, cursor int, opts Options) (Match, bool) {
	return Find(text, query, cursor, Forward, opts)
}

// FindPrev searches backward from cursor.
func FindPrev(text, query string, cursor int, opts Options) (Match, bool) {
	return Find(text, query, cursor, Backward, opts)
}

// Find returns the first match starting at or after start (Forward) or
// the last match starting at or before start (Backward). With WrapAround,
// a failed scan resumes from the opposite end of the text.
func Find(text, query string, start int, dir Direction, opts Options) (Match, bool) {
	if query == "" {
		return Match{}, false
	}
	start = clamp(start, 0, len(text))

	if opts.UseRegex {
		re, err := compile(query, opts.CaseSensitive)
		if err != nil {
			return Match{}, false
		}
		return findRegex(re, text, start, dir, opts)
	}

	m := plainMatcher{query: query, caseSensitive: opts.CaseSensitive, wholeWord: opts.WholeWord}
	if dir == Backward {
		if match, ok := m.backward(text, start, 0); ok {
			return match, true
		}
		if opts.WrapAround && start < len(text) {
			return m.backward(text, len(text), start+1)
		}
		return Match{}, false
	}

	if match, ok := m.forward(text, start, len(text)); ok {
		return match, true
	}
	if opts.WrapAround && start > 0 {
		return m.forward(text, 0, start)
	}
	return Match{}, false
}

// FindAll returns the non-overlapping matches in text, left to right.
func FindAll(text, query string, opts Options) []Match {
	if query == "" {
		return nil
	}
	if opts.UseRegex {
		re, err := compile(query, opts.CaseSensitive)
		if err != nil {
			return nil
		}
		var matches []Match
		for _, loc := range regexCandidates(re, text, opts.WholeWord) {
			if loc[1] > loc[0] {
				matches = append(matches, Match{Start: loc[0], Length: loc[1] - loc[0]})
			}
		}
		return matches
	}

	m := plainMatcher{query: query, caseSensitive: opts.CaseSensitive, wholeWord: opts.WholeWord}
	var matches []Match
	for i := 0; i < len(text); {
		match, ok := m.forward(text, i, len(text))
		if !ok {
			break
		}
		matches = append(matches, match)
		i = match.End()
	}
	return matches
}

// CountMatches returns the number of non-overlapping matches.
func CountMatches(text, query string, opts Options) int {
	return len(FindAll(text, query, opts))
}

func findRegex(re *regexp.Regexp, text string, start int, dir Direction, opts Options) (Match, bool) {
	if dir == Forward {
		if loc, ok := regexFrom(re, text, start, opts.WholeWord); ok {
			return locMatch(loc), true
		}
		if opts.WrapAround && start > 0 {
			if loc, ok := regexFrom(re, text, 0, opts.WholeWord); ok {
				return locMatch(loc), true
			}
		}
		return Match{}, false
	}

	// Backward picks from the left to right matches of the whole text.
	var before, last []int
	for _, loc := range regexCandidates(re, text, opts.WholeWord) {
		// An empty match cannot be selected or stepped past.
		if loc[1] == loc[0] {
			continue
		}
		if loc[0] <= start {
			before = loc
		}
		last = loc
	}
	switch {
	case before != nil:
		return locMatch(before), true
	case opts.WrapAround && last != nil:
		return locMatch(last), true
	}
	return Match{}, false
}

// regexFrom returns the leftmost non-empty match of re starting at or
// after pos, with offsets into text. With wholeWord, a match touching a
// word character is rejected and the scan resumes one rune after its
// start.
func regexFrom(re *regexp.Regexp, text string, pos int, wholeWord bool) ([]int, bool) {
	for pos <= len(text) {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			return nil, false
		}
		shift(loc, pos)
		if loc[1] > loc[0] && (!wholeWord || isWholeWord(text, loc[0], loc[1])) {
			return loc, true
		}
		if loc[0] >= len(text) {
			return nil, false
		}
		pos = loc[0] + runeLen(text, loc[0])
	}
	return nil, false
}

// shift moves submatch offsets found in text[pos:] back into text.
func shift(loc []int, pos int) {
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += pos
		}
	}
}

func locMatch(loc []int) Match {
	return Match{Start: loc[0], Length: loc[1] - loc[0]}
}

// compile builds the pattern for query. Case-insensitive patterns get the
// (?i) flag.
func compile(query string, caseSensitive bool) (*regexp.Regexp, error) {
	if !caseSensitive {
		query = "(?i)" + query
	}
	return regexp.Compile(query)
}

// regexCandidates returns submatch index slices for the matches of re in
// text. With wholeWord, a match not bounded by non-word characters is
// rejected and the scan resumes one rune after its start, so a valid
// match overlapping the rejected one is still found.
func regexCandidates(re *regexp.Regexp, text string, wholeWord bool) [][]int {
	if !wholeWord {
		return re.FindAllStringSubmatchIndex(text, -1)
	}

	var out [][]int
	for pos := 0; pos <= len(text); {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		shift(loc, pos)

		if loc[1] > loc[0] && isWholeWord(text, loc[0], loc[1]) {
			out = append(out, loc)
			pos = loc[1]
			continue
		}
		if loc[0] >= len(text) {
			break
		}
		pos = loc[0] + runeLen(text, loc[0])
	}
	return out
}

// plainMatcher matches a literal query.
type plainMatcher struct {
	query         string
	caseSensitive bool
	wholeWord     bool
}

// at returns the length of a valid match at text[i:], or 0.
func (m plainMatcher) at(text string, i int) int {
	var n int
	if m.caseSensitive {
		if !strings.HasPrefix(text[i:], m.query) {
			return 0
		}
		n = len(m.query)
	} else {
		n = foldPrefix(text[i:], m.query)
		if n <= 0 {
			return 0
		}
	}
	if m.wholeWord && !isWholeWord(text, i, i+n) {
		return 0
	}
	return n
}

// forward scans match starts in [from, limit).
func (m plainMatcher) forward(text string, from, limit int) (Match, bool) {
	for i := from; i < limit; {
		if m.caseSensitive {
			j := strings.Index(text[i:], m.query)
			if j < 0 {
				return Match{}, false
			}
			i += j
			if i >= limit {
				return Match{}, false
			}
		}
		if n := m.at(text, i); n > 0 {
			return Match{Start: i, Length: n}, true
		}
		i += runeLen(text, i)
	}
	return Match{}, false
}

// backward scans match starts from from down to floor, inclusive.
func (m plainMatcher) backward(text string, from, floor int) (Match, bool) {
	for i := from; i >= floor; {
		if i < len(text) {
			if n := m.at(text, i); n > 0 {
				return Match{Start: i, Length: n}, true
			}
		}
		if i == 0 {
			break
		}
		_, size := utf8.DecodeLastRuneInString(text[:i])
		i -= size
	}
	return Match{}, false
}

// foldPrefix reports the byte length of the prefix of s that equals query
// under Unicode simple case folding, or -1.
func foldPrefix(s, query string) int {
	j := 0
	for _, qr := range query {
		if j >= len(s) {
			return -1
		}
		sr, size := utf8.DecodeRuneInString(s[j:])
		if !equalFold(sr, qr) {
			return -1
		}
		j += size
	}
	return j
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// IsWordRune reports whether r is a word character.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// isWholeWord reports whether text[start:end] has no word character
// immediately before or after it.
func isWholeWord(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if IsWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if IsWordRune(r) {
			return false
		}
	}
	return true
}

func runeLen(text string, i int) int {
	if i >= len(text) {
		return 1
	}
	_, size := utf8.DecodeRuneInString(text[i:])
	return size
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
