package teleop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwidla/teleop"
)

func TestDefaultTheme_ANSIRange(t *testing.T) {
	t.Parallel()
	theme := teleop.DefaultTheme()
	for name, c := range map[string]int{
		"UserMsg":  theme.UserMsg,
		"Thinking": theme.Thinking,
		"Plan":     theme.Plan,
		"Error":    theme.Error,
		"Success":  theme.Success,
		"Muted":    theme.Muted,
		"Accent":   theme.Accent,
	} {
		assert.GreaterOrEqual(t, c, 0, name)
		assert.LessOrEqual(t, c, 15, name)
	}
}
