package sandbox

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize strips ANSI escape sequences and control characters from script
// output, keeping tabs and newlines. CRLF normalizes to LF; a lone CR is
// resolved the way a terminal would, with later text overwriting the line
// from column zero.
func Sanitize(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	// Keep \r for now so carriage-return overwrites can be resolved per line.
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' || r > 0x1F {
			b.WriteRune(r)
		}
	}
	s = b.String()

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.ContainsRune(line, '\r') {
			lines[i] = overwriteLine(line)
		}
	}
	return strings.Join(lines, "\n")
}

// overwriteLine replays a line containing carriage returns: each \r moves
// the cursor back to column zero and subsequent characters overwrite. Tail
// characters the shorter segment never reaches are left in place, matching
// terminal behavior.
func overwriteLine(line string) string {
	segments := strings.Split(line, "\r")
	buf := []rune(segments[0])
	for _, seg := range segments[1:] {
		for j, r := range []rune(seg) {
			if j < len(buf) {
				buf[j] = r
			} else {
				buf = append(buf, r)
			}
		}
	}
	return string(buf)
}
