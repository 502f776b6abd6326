package cli

import "errors"

// errNoMatch is returned by find when nothing matched. main maps it to
// exit status 1 without printing an error, like grep.
var errNoMatch = errors.New("no match")

// IsNoMatch reports whether err means a search found nothing.
func IsNoMatch(err error) bool {
	return errors.Is(err, errNoMatch)
}
