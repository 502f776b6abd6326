package search

import "testing"

func TestReplaceAll(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		query       string
		replacement string
		opts        Options
		want        string
		count       int
	}{
		{"whole word", "cat cats cat", "cat", "dog", Options{WholeWord: true}, "dog cats dog", 2},
		{"plain", "cat cats cat", "cat", "dog", Options{}, "dog dogs dog", 3},
		{"case sensitive", "Cat cat", "cat", "dog", Options{CaseSensitive: true}, "Cat dog", 1},
		{"case folded", "Cat cat", "cat", "dog", Options{}, "dog dog", 2},
		{"whole word overlapping", "aaa aa", "aa", "bb", Options{WholeWord: true}, "aaa bb", 1},
		{"no match", "abc", "x", "y", Options{}, "abc", 0},
		{"empty query", "abc", "", "y", Options{}, "abc", 0},
		{"delete", "a-b-c", "-", "", Options{}, "abc", 2},
		{"multibyte", "naïve naïve", "ï", "i", Options{CaseSensitive: true}, "naive naive", 2},
		{"regex backrefs", "john smith", `(\w+) (\w+)`, "$2, $1", Options{UseRegex: true}, "smith, john", 1},
		{"regex named", "k=v", `(?P<key>\w)=(?P<val>\w)`, "${val}=${key}", Options{UseRegex: true}, "v=k", 1},
		{"regex whole word", "cat1 cat catcat", `cat`, "dog", Options{UseRegex: true, WholeWord: true}, "cat1 dog catcat", 1},
		{"regex whole word backrefs", "ab ab1", `(a)(b)`, "$2$1", Options{UseRegex: true, WholeWord: true}, "ba ab1", 1},
		{"regex invalid", "abc", `(`, "x", Options{UseRegex: true}, "abc", 0},
		{"regex empty matches", "abc", `x*`, "-", Options{UseRegex: true}, "-a-b-c-", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, count := ReplaceAll(tt.text, tt.query, tt.replacement, tt.opts)
			if got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
			if count != tt.count {
				t.Errorf("count = %d, want %d", count, tt.count)
			}
		})
	}
}

func TestReplaceOne_FindThenReplace(t *testing.T) {
	text := "cat dog cat"
	opts := Options{CaseSensitive: true}

	// The cursor is not on a match: the first call only finds.
	res := ReplaceOne(text, "cat", "cow", Selection{Start: 1}, opts)
	if res.Replaced {
		t.Fatal("first call should not replace")
	}
	if res.Text != text {
		t.Errorf("Text = %q, want unchanged", res.Text)
	}
	if !res.Found || res.Next != (Match{8, 3}) {
		t.Fatalf("Next = %+v, %v", res.Next, res.Found)
	}

	res = ReplaceOne(res.Text, "cat", "cow", res.Next, opts)
	if !res.Replaced {
		t.Fatal("second call should replace")
	}
	if res.Text != "cat dog cow" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Found {
		t.Errorf("without wrap nothing follows, got %+v", res.Next)
	}

	opts.WrapAround = true
	res = ReplaceOne(text, "cat", "cow", Selection{Start: 8, Length: 3}, opts)
	if !res.Found || res.Next != (Match{0, 3}) {
		t.Errorf("wrapped Next = %+v, %v", res.Next, res.Found)
	}
}

func TestReplaceOne_AdvancesPastReplacement(t *testing.T) {
	res := ReplaceOne("a a a", "a", "aa", Selection{Start: 0, Length: 1}, Options{CaseSensitive: true})

	if res.Text != "aa a a" {
		t.Errorf("Text = %q", res.Text)
	}
	if !res.Found || res.Next != (Match{3, 1}) {
		t.Errorf("Next = %+v, %v", res.Next, res.Found)
	}
}

func TestReplaceOne_InvalidSelection(t *testing.T) {
	tests := []struct {
		name string
		text string
		sel  Selection
		opts Options
	}{
		{"wrong length", "cat", Selection{Start: 0, Length: 2}, Options{}},
		{"wrong text", "dog cat", Selection{Start: 0, Length: 3}, Options{}},
		{"out of range", "cat", Selection{Start: 2, Length: 3}, Options{}},
		{"not whole word", "cats cat", Selection{Start: 0, Length: 3}, Options{WholeWord: true}},
		{"case mismatch", "Cat cat", Selection{Start: 0, Length: 3}, Options{CaseSensitive: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ReplaceOne(tt.text, "cat", "X", tt.sel, tt.opts)
			if res.Replaced {
				t.Errorf("replaced invalid selection: %q", res.Text)
			}
			if res.Text != tt.text {
				t.Errorf("Text = %q, want unchanged", res.Text)
			}
		})
	}
}

func TestReplaceOne_Regex(t *testing.T) {
	opts := Options{UseRegex: true}
	res := ReplaceOne("x=1 y=2", `(\w)=(\d)`, "$2=$1", Selection{Start: 0, Length: 3}, opts)

	if !res.Replaced || res.Text != "1=x y=2" {
		t.Fatalf("Result = %+v", res)
	}
	if !res.Found || res.Next != (Match{4, 3}) {
		t.Errorf("Next = %+v, %v", res.Next, res.Found)
	}

	// A selection that is not exactly a match is not replaced.
	res = ReplaceOne("x=1 y=2", `(\w)=(\d)`, "$2=$1", Selection{Start: 0, Length: 2}, opts)
	if res.Replaced {
		t.Error("partial selection should not be replaced")
	}
	if !res.Found || res.Next != (Match{0, 3}) {
		t.Errorf("Next = %+v, %v", res.Next, res.Found)
	}

	// A match found from the cursor inside an earlier match is replaceable.
	exact := Options{UseRegex: true, CaseSensitive: true}
	next, ok := FindNext("aaa", "aa", 1, exact)
	if !ok || next != (Match{1, 2}) {
		t.Fatalf("FindNext = %+v, %v", next, ok)
	}
	res = ReplaceOne("aaa", "aa", "X", next, exact)
	if !res.Replaced || res.Text != "aX" {
		t.Errorf("overlapping selection Result = %+v", res)
	}

	res = ReplaceOne("k: v1 v2", `v(\d)`, "n$1", Selection{Start: 6, Length: 2}, opts)
	if !res.Replaced || res.Text != "k: v1 n2" {
		t.Errorf("later selection Result = %+v", res)
	}

	res = ReplaceOne("abc", `(`, "x", Selection{Start: 0, Length: 1}, opts)
	if res.Replaced || res.Found {
		t.Errorf("invalid pattern Result = %+v", res)
	}
}

func TestReplaceOne_EmptyQuery(t *testing.T) {
	res := ReplaceOne("abc", "", "x", Selection{Start: 0, Length: 1}, Options{})
	if res.Replaced || res.Found || res.Text != "abc" {
		t.Errorf("Result = %+v", res)
	}
}
