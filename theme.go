package teleop

// Theme maps the console's semantic colors to ANSI color indices (0-15).
// The operator's terminal palette supplies the actual RGB values.
type Theme struct {
	UserMsg  int // operator message accent
	Thinking int // model reasoning text
	Plan     int // proposed tool call header
	Error    int // error messages
	Success  int // approved/executed indicators
	Muted    int // status bar, placeholders, gutters
	Accent   int // headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:  4,
		Thinking: 8,
		Plan:     3,
		Error:    1,
		Success:  2,
		Muted:    8,
		Accent:   5,
	}
}
