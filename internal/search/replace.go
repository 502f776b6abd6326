package search

import (
	"regexp"
	"strings"
)

// Result is the outcome of ReplaceOne.
type Result struct {
	// Text is the text after the operation; unchanged when Replaced is false.
	Text string
	// Replaced reports whether the selection was substituted.
	Replaced bool
	// Next is the match following the replacement, or following the
	// selection when nothing was replaced. Valid only when Found is true.
	Next  Match
	Found bool
}

// ReplaceOne substitutes the selection if it is a valid match for query
// under opts, then finds the next match. A selection that is not a match
// is left alone and only the search runs, so the first call finds and the
// second replaces.
func ReplaceOne(text, query, replacement string, sel Selection, opts Options) Result {
	res := Result{Text: text}
	if query == "" {
		return res
	}

	substitute, ok := selectionReplacement(text, query, replacement, sel, opts)
	if !ok {
		res.Next, res.Found = Find(text, query, sel.Start, Forward, opts)
		return res
	}

	res.Text = text[:sel.Start] + substitute + text[sel.End():]
	res.Replaced = true
	res.Next, res.Found = Find(res.Text, query, sel.Start+len(substitute), Forward, opts)
	return res
}

// selectionReplacement validates sel and returns the text to put in its
// place.
func selectionReplacement(text, query, replacement string, sel Selection, opts Options) (string, bool) {
	if sel.Length <= 0 || sel.Start < 0 || sel.End() > len(text) {
		return "", false
	}

	if !opts.UseRegex {
		m := plainMatcher{query: query, caseSensitive: opts.CaseSensitive, wholeWord: opts.WholeWord}
		if m.at(text, sel.Start) != sel.Length {
			return "", false
		}
		return replacement, true
	}

	re, err := compile(query, opts.CaseSensitive)
	if err != nil {
		return "", false
	}
	src := text[sel.Start:]
	loc := re.FindStringSubmatchIndex(src)
	if loc == nil || loc[0] != 0 || loc[1] != sel.Length {
		return "", false
	}
	if opts.WholeWord && !isWholeWord(text, sel.Start, sel.End()) {
		return "", false
	}
	return string(re.ExpandString(nil, replacement, src, loc)), true
}

// ReplaceAll substitutes every non-overlapping match in a single left to
// right pass and returns the new text and the number of replacements.
func ReplaceAll(text, query, replacement string, opts Options) (string, int) {
	if query == "" {
		return text, 0
	}
	if opts.UseRegex {
		re, err := compile(query, opts.CaseSensitive)
		if err != nil {
			return text, 0
		}
		return replaceAllRegex(re, text, replacement, opts.WholeWord)
	}
	return replaceAllPlain(text, query, replacement, opts)
}

func replaceAllRegex(re *regexp.Regexp, text, replacement string, wholeWord bool) (string, int) {
	if !wholeWord {
		n := len(re.FindAllStringIndex(text, -1))
		if n == 0 {
			return text, 0
		}
		return re.ReplaceAllString(text, replacement), n
	}

	locs := regexCandidates(re, text, true)
	if len(locs) == 0 {
		return text, 0
	}
	var b []byte
	last := 0
	for _, loc := range locs {
		b = append(b, text[last:loc[0]]...)
		b = re.ExpandString(b, replacement, text, loc)
		last = loc[1]
	}
	b = append(b, text[last:]...)
	return string(b), len(locs)
}

func replaceAllPlain(text, query, replacement string, opts Options) (string, int) {
	m := plainMatcher{query: query, caseSensitive: opts.CaseSensitive, wholeWord: opts.WholeWord}

	var b strings.Builder
	count := 0
	i := 0
	for i < len(text) {
		if m.caseSensitive {
			j := strings.Index(text[i:], query)
			if j < 0 {
				break
			}
			b.WriteString(text[i : i+j])
			i += j
		}
		if n := m.at(text, i); n > 0 {
			b.WriteString(replacement)
			i += n
			count++
			continue
		}
		// Not a match here; copy one rune so a match starting inside the
		// rejected candidate is still seen.
		size := runeLen(text, i)
		b.WriteString(text[i : i+size])
		i += size
	}
	if count == 0 {
		return text, 0
	}
	b.WriteString(text[i:])
	return b.String(), count
}
