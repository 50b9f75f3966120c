package version

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/hanlift/catalog"
)

func parse(t *testing.T, s string) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(s))
	require.NoError(t, err)
	return c
}

func TestNextOnEmptyAndMissingDir(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing"))
	n, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNextIgnoresNonNumericEntries(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"1", "7", "03", "x", "-2", "0"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, name), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "9"), nil, 0644))

	s := NewStore(dir)
	idx, err := s.Indexes()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 7}, idx)

	n, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestWriteAndLoad(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	old := parse(t, `{"a":{"b":"1"}}`)
	cur := parse(t, `{"a":{"b":"1","c":"2"}}`)

	snap, err := s.Write([]Change{
		{Locale: "zh-CN", Old: old, New: cur},
		{Locale: "en-US", Old: nil, New: parse(t, `{"a":{"c":"two"}}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, []string{"zh-CN", "en-US"}, snap.Locales)

	for _, name := range []string{
		"old.zh-CN.json", "new.zh-CN.json", "diff.zh-CN.json",
		"old.en-US.json", "new.en-US.json", "diff.en-US.json",
	} {
		assert.FileExists(t, filepath.Join(dir, "1", name))
	}

	diff, err := os.ReadFile(filepath.Join(dir, "1", "diff.zh-CN.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": {\n    \"c\": \"2\"\n  }\n}\n", string(diff))

	oldEn, err := os.ReadFile(filepath.Join(dir, "1", "old.en-US.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(oldEn))

	loaded, err := s.Load(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"en-US", "zh-CN"}, loaded.Locales)
	assert.True(t, loaded.New["zh-CN"].Equal(cur))
	assert.Equal(t, 1, loaded.Changes("zh-CN"))
	assert.Equal(t, 1, loaded.Changes("en-US"))
	assert.Equal(t, 0, loaded.Changes("fr"))
}

func TestWriteIsAppendOnly(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	first, err := s.Write([]Change{{Locale: "zh-CN", New: parse(t, `{"a":"1"}`)}})
	require.NoError(t, err)
	second, err := s.Write([]Change{{Locale: "zh-CN", Old: parse(t, `{"a":"1"}`), New: parse(t, `{"a":"2"}`)}})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Index)
	assert.Equal(t, 2, second.Index)

	all, err := s.List()
	require.NoError(t, err)
	require.Len(t, all, 2)

	v, _ := all[0].New["zh-CN"].Get("a")
	assert.Equal(t, "1", v, "first snapshot must stay untouched")
	v, _ = all[1].Diff["zh-CN"].Get("a")
	assert.Equal(t, "2", v)
}

func TestAllocateSkipsTakenNumber(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "4"), 0755))

	s := NewStore(dir)
	snap, err := s.Write([]Change{{Locale: "zh-CN", New: catalog.New()}})
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Index)
}

func TestLoadMissing(t *testing.T) {
	_, err := NewStore(t.TempDir()).Load(3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseArtifact(t *testing.T) {
	p, l, ok := parseArtifact("diff.zh-CN.json")
	assert.True(t, ok)
	assert.Equal(t, "diff", p)
	assert.Equal(t, "zh-CN", l)

	for _, bad := range []string{"zh-CN.json", "notes.txt", "old..json", "other.en.json"} {
		_, _, ok := parseArtifact(bad)
		assert.False(t, ok, bad)
	}
}
