package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	require.Equal(t, 15, table.Len())

	first := table.At(0)
	assert.Equal(t, "행복감정", first.Normal)
	assert.Equal(t, "행볻감정", first.Target)

	// Identical pairs ship unfiltered.
	identical := 0
	for _, e := range table.Entries() {
		if e.Identical() {
			identical++
		}
	}
	assert.Equal(t, 4, identical)
}

func TestParse(t *testing.T) {
	t.Run("entries in order", func(t *testing.T) {
		table, err := Parse([]byte("entries:\n  - normal: AB\n    target: AC\n  - normal: XY\n    target: XZ\n"))
		require.NoError(t, err)
		assert.Equal(t, []Entry{{Normal: "AB", Target: "AC"}, {Normal: "XY", Target: "XZ"}}, table.Entries())
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := Parse([]byte("entries: []\n"))
		assert.ErrorIs(t, err, ErrEmptyTable)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("entries: [\n"))
		assert.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pairs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries:\n  - normal: AB\n    target: AC\n"), 0o644))

	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestTableIsImmutable(t *testing.T) {
	src := []Entry{{Normal: "AB", Target: "AC"}}
	table, err := NewTable(src)
	require.NoError(t, err)

	src[0].Normal = "changed"
	out := table.Entries()
	out[0].Target = "changed"

	assert.Equal(t, Entry{Normal: "AB", Target: "AC"}, table.At(0))
}
