package sandbox

import "strings"

// Stats describes what TruncateTail kept and dropped.
type Stats struct {
	Truncated  bool
	TotalLines int
	KeptLines  int
}

// TruncateTail keeps the last maxLines lines of s, within a maxBytes byte
// cap, whichever limit bites first. Complete lines are preferred; when a
// single line alone exceeds the byte cap its tail is kept.
func TruncateTail(s string, maxLines, maxBytes int) (string, Stats) {
	if s == "" {
		return "", Stats{}
	}

	trailingNewline := strings.HasSuffix(s, "\n")
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	stats := Stats{TotalLines: len(lines)}

	if len(lines) <= maxLines && len(s) <= maxBytes {
		stats.KeptLines = len(lines)
		return s, stats
	}
	stats.Truncated = true

	start := len(lines)
	size := 0
	if trailingNewline {
		size = 1
	}
	for start > 0 && len(lines)-start < maxLines {
		lineSize := len(lines[start-1])
		if start < len(lines) {
			lineSize++
		}
		if size+lineSize > maxBytes {
			break
		}
		size += lineSize
		start--
	}

	if start == len(lines) {
		// A single line larger than the whole byte budget: keep its tail.
		tail := lines[len(lines)-1]
		if len(tail) > maxBytes {
			tail = tail[len(tail)-maxBytes:]
		}
		stats.KeptLines = 1
		return tail, stats
	}

	out := strings.Join(lines[start:], "\n")
	if trailingNewline {
		out += "\n"
	}
	stats.KeptLines = len(lines) - start
	return out, stats
}
