package journal

import (
	"strings"
	"time"
	"unicode"
)

// PulseIDFor builds the business identifier: up to four leading characters of
// the name with whitespace removed, uppercased, followed by DDMMYY. Two pulses
// with a similar prefix created on the same day get the same identifier.
func PulseIDFor(name string, at time.Time) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)

	prefix := []rune(compact)
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return strings.ToUpper(string(prefix)) + at.Format("020106")
}
