// Package search provides find and replace over document text.
//
// Every function is a pure computation over a string and a caller-held
// cursor; no state is retained between calls. Supported modes:
//   - Plain text, case sensitive or with Unicode simple case folding
//   - Regular expressions (RE2 syntax) with $1 / ${name} substitution
//   - Whole-word matching, where word characters are letters, digits
//     and underscore
//   - Forward and backward search with optional wrap-around
//
// Offsets are byte offsets into the text. An empty query or a malformed
// pattern finds nothing; patterns are expected to be incomplete while the
// user types them.
package search
