package zimdsp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zimdsp/zimdsp/internal/patch"
)

// Every shipped example must parse, serialise idempotently, compile, and
// render a non-trivial first second of audio.
func TestExampleCorpus(t *testing.T) {
	entries, err := os.ReadDir("examples")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".zim") {
			continue
		}
		t.Run(entry.Name(), func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("examples", entry.Name()))
			require.NoError(t, err)
			text := string(data)

			cmds, err := patch.Parse(text)
			require.NoError(t, err)
			formatted := patch.Format(cmds)
			again, err := patch.Parse(formatted)
			require.NoError(t, err)
			assert.Equal(t, formatted, patch.Format(again), "serialisation must be idempotent")

			samples, err := RenderSamples(text, 44100, 1)
			require.NoError(t, err)
			var energy float64
			for _, s := range samples {
				if s < 0 {
					energy -= float64(s)
				} else {
					energy += float64(s)
				}
			}
			assert.NotZero(t, energy, "example renders silence")
		})
	}
}
