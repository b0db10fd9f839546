package utils

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeWriteFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", "report.json")
	require.NoError(t, SafeWriteFile(p, []byte("one")))
	require.NoError(t, SafeWriteFile(p, []byte("two")))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
	_, err = os.Stat(p + ".tmp")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(b))

	_, err = PrettyJSON(math.NaN())
	assert.ErrorContains(t, err, "marshal json")
}
