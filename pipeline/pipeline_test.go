package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/hanlift/catalog"
	"github.com/minios-linux/hanlift/rewrite"
	"github.com/minios-linux/hanlift/scan"
	"github.com/minios-linux/hanlift/translate"
)

const page = `import React from 'react';

const Foo: React.FC = () => {
  return (
    <div>
      <h2>你好世界</h2>
      <Input title="再见" />
    </div>
  );
};
`

type fixture struct {
	root string
	out  string
	unit string
}

func newFixture(t *testing.T, content string) fixture {
	t.Helper()
	root := t.TempDir()
	unit := filepath.Join(root, "src", "pages", "foo", "index.tsx")
	require.NoError(t, os.MkdirAll(filepath.Dir(unit), 0755))
	require.NoError(t, os.WriteFile(unit, []byte(content), 0644))
	return fixture{root: root, out: filepath.Join(root, "scripts", "files"), unit: unit}
}

func (f fixture) open(t *testing.T) *Workspace {
	t.Helper()
	ws, err := Open(f.out, "zh-CN", "en-US")
	require.NoError(t, err)
	return ws
}

func (f fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.out, rel))
	require.NoError(t, err)
	return string(data)
}

func english(calls *int) translate.Translator {
	dict := map[string]string{"你好世界": "Hello world", "再见": "Goodbye"}
	return translate.TranslatorFunc(func(_ context.Context, text string) (string, error) {
		*calls++
		if v, ok := dict[text]; ok {
			return v, nil
		}
		return "", errors.New("unknown text")
	})
}

func options(tr translate.Translator) Options {
	return Options{Marker: "pages", Fallback: "pages", Rewrite: rewrite.DefaultOptions(), Translator: tr}
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t, page)
	calls := 0

	rep, err := Run(context.Background(), f.open(t), f.unit, options(english(&calls)))
	require.NoError(t, err)

	assert.Equal(t, "pages.foo", rep.Namespace)
	assert.Equal(t, 2, rep.Unique)
	assert.Equal(t, 2, rep.Merge.Added)
	assert.Equal(t, 2, rep.Rewrite.Replaced)
	assert.Equal(t, 2, rep.Translate.Calls)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, rep.Version)
	assert.True(t, rep.SourceWritten)

	assert.Equal(t, `{
  "pages": {
    "foo": {
      "index_0": "你好世界",
      "index_1": "再见"
    }
  }
}
`, f.read(t, "zh-CN.json"))
	assert.Equal(t, `{
  "pages": {
    "foo": {
      "index_0": "Hello world",
      "index_1": "Goodbye"
    }
  }
}
`, f.read(t, "en-US.json"))

	unit, err := os.ReadFile(f.unit)
	require.NoError(t, err)
	assert.Contains(t, string(unit), "<h2>{t('pages.foo.index_0')}</h2>")
	assert.Contains(t, string(unit), "title={t('pages.foo.index_1')}")
	assert.Contains(t, string(unit), "import { useTranslation } from 'react-i18next';")
	assert.Contains(t, string(unit), "const { t } = useTranslation();")

	for _, name := range []string{
		"old.zh-CN.json", "new.zh-CN.json", "diff.zh-CN.json",
		"old.en-US.json", "new.en-US.json", "diff.en-US.json",
	} {
		assert.FileExists(t, filepath.Join(f.out, "1", name))
	}
	assert.Equal(t, "{}\n", f.read(t, "1/old.zh-CN.json"))
	assert.Equal(t, f.read(t, "en-US.json"), f.read(t, "1/diff.en-US.json"))

	ws := f.open(t)
	assert.False(t, ws.Lock.IsChanged("en-US", "pages.foo.index_0", "你好世界"))
}

func TestRunIsIdempotent(t *testing.T) {
	f := newFixture(t, page)
	calls := 0

	_, err := Run(context.Background(), f.open(t), f.unit, options(english(&calls)))
	require.NoError(t, err)
	zh, en := f.read(t, "zh-CN.json"), f.read(t, "en-US.json")
	first, err := os.ReadFile(f.unit)
	require.NoError(t, err)

	rep, err := Run(context.Background(), f.open(t), f.unit, options(english(&calls)))
	require.NoError(t, err)

	assert.Zero(t, rep.Found)
	assert.False(t, rep.Changed())
	assert.Zero(t, rep.Version)
	assert.False(t, rep.SourceWritten)
	assert.Equal(t, 2, calls)

	assert.Equal(t, zh, f.read(t, "zh-CN.json"))
	assert.Equal(t, en, f.read(t, "en-US.json"))
	second, err := os.ReadFile(f.unit)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	assert.NoDirExists(t, filepath.Join(f.out, "2"))
}

func TestRunWithoutCredentialsCopiesSource(t *testing.T) {
	f := newFixture(t, page)

	client := translate.NewClient(translate.Config{From: "zh", To: "en"})
	rep, err := Run(context.Background(), f.open(t), f.unit, options(client))
	require.NoError(t, err)

	assert.Zero(t, rep.Translate.Calls)
	assert.Equal(t, 2, rep.Translate.Fallbacks)
	assert.Equal(t, f.read(t, "zh-CN.json"), f.read(t, "en-US.json"))

	// Fallback values are not recorded as translations.
	ws := f.open(t)
	assert.True(t, ws.Lock.IsChanged("en-US", "pages.foo.index_0", "你好世界"))
}

func TestRunDryRunWritesNothing(t *testing.T) {
	f := newFixture(t, page)
	calls := 0

	rep, err := Run(context.Background(), f.open(t), f.unit, func() Options {
		o := options(english(&calls))
		o.DryRun = true
		return o
	}())
	require.NoError(t, err)

	assert.True(t, rep.Changed())
	assert.Equal(t, 2, rep.Merge.Added)
	assert.Equal(t, 2, rep.Rewrite.Replaced)
	assert.Zero(t, rep.Version)
	assert.NoDirExists(t, f.out)

	unit, err := os.ReadFile(f.unit)
	require.NoError(t, err)
	assert.Equal(t, page, string(unit))
}

func TestRunMissingSource(t *testing.T) {
	f := newFixture(t, page)

	_, err := Run(context.Background(), f.open(t), filepath.Join(f.root, "nope.tsx"), options(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceMissing))
	assert.NoDirExists(t, f.out)
}

func TestOpenCorruptCatalog(t *testing.T) {
	f := newFixture(t, page)
	require.NoError(t, os.MkdirAll(f.out, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.out, "zh-CN.json"), []byte(`{"pages": {`), 0644))

	_, err := Open(f.out, "zh-CN", "en-US")
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrCorrupt))
}

func TestRunKeepsManualEdits(t *testing.T) {
	f := newFixture(t, page)
	require.NoError(t, os.MkdirAll(f.out, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.out, "zh-CN.json"),
		[]byte(`{"pages":{"foo":{"index_0":"手工修改"}}}`), 0644))

	rep, err := Run(context.Background(), f.open(t), f.unit, options(nil))
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Merge.Conflicts)
	assert.Equal(t, 1, rep.Merge.Added)
	assert.Equal(t, 2, rep.Rewrite.Replaced)

	ws := f.open(t)
	v, _ := ws.Source.Get("pages.foo.index_0")
	assert.Equal(t, "手工修改", v)

	unit, err := os.ReadFile(f.unit)
	require.NoError(t, err)
	assert.Contains(t, string(unit), "<h2>{t('pages.foo.index_0')}</h2>")
	assert.Contains(t, string(unit), "title={t('pages.foo.index_1')}")
	assert.False(t, scan.ContainsHan(string(unit)))
}

func TestExtractThenRunIsIdempotent(t *testing.T) {
	src := "const Foo = () => {\n  return <div><p>欢迎 John</p><h2>你好世界</h2></div>;\n};\n"
	f := newFixture(t, src)

	o := options(nil)
	o.Loose = true
	rep, err := Run(context.Background(), f.open(t), f.unit, o)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Merge.Added)

	rep, err = Run(context.Background(), f.open(t), f.unit, options(nil))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Merge.Conflicts)
	assert.Equal(t, 2, rep.Rewrite.Replaced)

	unit, err := os.ReadFile(f.unit)
	require.NoError(t, err)
	assert.Contains(t, string(unit), "<p>{t('pages.foo.index_0')}</p><h2>{t('pages.foo.index_1')}</h2>")

	rep, err = Run(context.Background(), f.open(t), f.unit, options(nil))
	require.NoError(t, err)
	assert.Zero(t, rep.Found)
	assert.False(t, rep.Changed())
	assert.False(t, rep.SourceWritten)
}

func TestRunLooseSeedsCatalogOnly(t *testing.T) {
	src := "// 注释里的中文\nconst a = '保存成功';\nconst b = '保存';\nconst c = `删除成功了`;\n"
	f := newFixture(t, src)

	o := options(nil)
	o.Loose = true
	o.NoTranslate = true
	rep, err := Run(context.Background(), f.open(t), f.unit, o)
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Unique)
	assert.False(t, rep.Rewrite.Changed())
	assert.False(t, rep.SourceWritten)

	ws := f.open(t)
	v0, _ := ws.Source.Get("pages.foo.index_0")
	v1, _ := ws.Source.Get("pages.foo.index_1")
	assert.Equal(t, "保存成功", v0)
	assert.Equal(t, "删除成功了", v1)
	assert.True(t, ws.Target.Empty())
	assert.NoFileExists(t, filepath.Join(f.out, "en-US.json"))

	unit, err := os.ReadFile(f.unit)
	require.NoError(t, err)
	assert.Equal(t, src, string(unit))
}

func TestRunOutsideMarkerUsesFallback(t *testing.T) {
	root := t.TempDir()
	unit := filepath.Join(root, "components", "Button.tsx")
	require.NoError(t, os.MkdirAll(filepath.Dir(unit), 0755))
	require.NoError(t, os.WriteFile(unit, []byte("export const L = () => <span>确定</span>;\n"), 0644))

	ws, err := Open(filepath.Join(root, "out"), "zh-CN", "en-US")
	require.NoError(t, err)

	o := options(nil)
	o.NoRewrite = true
	rep, err := Run(context.Background(), ws, unit, o)
	require.NoError(t, err)

	assert.Equal(t, "pages", rep.Namespace)
	v, _ := ws.Source.Get("pages.index_0")
	assert.Equal(t, "确定", v)
	assert.False(t, rep.SourceWritten)
}

func TestRunRetranslateStale(t *testing.T) {
	f := newFixture(t, page)
	calls := 0
	_, err := Run(context.Background(), f.open(t), f.unit, options(english(&calls)))
	require.NoError(t, err)

	// The source text is edited by hand after translation.
	ws := f.open(t)
	require.NoError(t, ws.Source.Set("pages.foo.index_1", "你好世界"))
	_, err = ws.Commit()
	require.NoError(t, err)

	st, err := f.open(t).Status()
	require.NoError(t, err)
	assert.Equal(t, []string{"pages.foo.index_1"}, st.Stale)

	ws = f.open(t)
	rep, err := ws.Backfill(context.Background(), english(&calls), false)
	require.NoError(t, err)
	assert.Zero(t, rep.Calls)

	rep, err = ws.Backfill(context.Background(), english(&calls), true)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Calls)
	snap, err := ws.Commit()
	require.NoError(t, err)
	require.NotNil(t, snap)

	v, _ := ws.Target.Get("pages.foo.index_1")
	assert.Equal(t, "Hello world", v)

	st, err = f.open(t).Status()
	require.NoError(t, err)
	assert.Empty(t, st.Stale)
	assert.Equal(t, 3, st.Versions)
}

func TestStatusAndImport(t *testing.T) {
	f := newFixture(t, page)
	_, err := Run(context.Background(), f.open(t), f.unit, func() Options {
		o := options(nil)
		o.NoTranslate = true
		return o
	}())
	require.NoError(t, err)

	ws := f.open(t)
	st, err := ws.Status()
	require.NoError(t, err)
	assert.Equal(t, 2, st.SourceLeaves)
	assert.Zero(t, st.TargetLeaves)
	assert.Equal(t, []string{"pages.foo.index_0", "pages.foo.index_1"}, st.Missing)
	assert.Equal(t, 1, st.Versions)

	rep, err := ws.Import(map[string]string{"pages.foo.index_1": "Bye"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pages.foo.index_1"}, rep.Updated)

	snap, err := ws.Commit()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 2, snap.Index)
	assert.True(t, strings.Contains(f.read(t, "en-US.json"), `"index_1": "Bye"`))

	st, err = f.open(t).Status()
	require.NoError(t, err)
	assert.Equal(t, []string{"pages.foo.index_0"}, st.Missing)
	assert.Empty(t, st.Stale)
}

func TestStatusReportsUntrackedCopies(t *testing.T) {
	f := newFixture(t, page)
	_, err := Run(context.Background(), f.open(t), f.unit, options(nil))
	require.NoError(t, err)

	ws := f.open(t)
	st, err := ws.Status()
	require.NoError(t, err)
	assert.Empty(t, st.Missing)
	assert.Equal(t, []string{"pages.foo.index_0", "pages.foo.index_1"}, st.Untracked)
	assert.Equal(t, filepath.Join(f.out, "hanlift.lock"), st.LockPath)

	_, err = ws.Import(map[string]string{"pages.foo.index_1": "Goodbye"})
	require.NoError(t, err)
	_, err = ws.Commit()
	require.NoError(t, err)

	st, err = f.open(t).Status()
	require.NoError(t, err)
	assert.Equal(t, []string{"pages.foo.index_0"}, st.Untracked)
	assert.Empty(t, st.Stale)
}
