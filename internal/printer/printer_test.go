package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, errBuf := new(bytes.Buffer), new(bytes.Buffer)
	prevOut, prevErr, prevNoColor := Out, Err, color.NoColor
	Out, Err, color.NoColor = out, errBuf, true
	t.Cleanup(func() { Out, Err, color.NoColor = prevOut, prevErr, prevNoColor })
	return out, errBuf
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		_, stderr := capture(t)
		err := Error("Test Error", "This is a test error", nil)
		require.EqualError(t, err, "Test Error")
		assert.Equal(t, "Test Error\n\nThis is a test error\n", stderr.String())
	})

	t.Run("single suggestion is printed as is", func(t *testing.T) {
		_, stderr := capture(t)
		require.EqualError(t, Error("Test Error", "Explanation", []string{"Try this fix"}), "Test Error")
		assert.Contains(t, stderr.String(), "\nTry this fix\n")
		assert.NotContains(t, stderr.String(), "Either")
	})

	t.Run("multiple suggestions are numbered", func(t *testing.T) {
		_, stderr := capture(t)
		Error("Test Error", "Explanation", []string{"First option", "Second option"})
		assert.Contains(t, stderr.String(), "Either:\n  1. First option\n  2. Second option\n")
	})
}

func TestErrorWithContext(t *testing.T) {
	_, stderr := capture(t)
	err := ErrorWithContext("AI not found", "", map[string]string{
		"Team": "3",
		"AI":   "NullAI",
	}, nil)
	require.EqualError(t, err, "AI not found")
	assert.Equal(t, "AI not found\n\n\n  AI: NullAI\n  Team: 3\n", stderr.String())
}

func TestTable(t *testing.T) {
	stdout, _ := capture(t)
	Table([]string{"KEY", "VALUE"}, [][]string{{"a", "1"}, {"longer", "2"}})

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	var cells []string
	for _, line := range lines {
		if strings.Contains(line, "longer") {
			cells = strings.Fields(strings.NewReplacer("│", " ", "|", " ").Replace(line))
		}
	}
	assert.Equal(t, []string{"longer", "2"}, cells)
	assert.Contains(t, stdout.String(), "KEY")
}

func TestSuccessAndWarning(t *testing.T) {
	stdout, _ := capture(t)
	Success("done\n")
	Success("✓ already prefixed\n")
	Warning("careful\n")
	assert.Equal(t, "✓ done\n✓ already prefixed\n⚠️  careful\n", stdout.String())
}
