package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/hanlift/scan"
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

func TestRewritePage(t *testing.T) {
	lits := scan.Strict(page)
	keys := map[string]string{
		"你好世界": "pages.foo.index_0",
		"再见":   "pages.foo.index_1",
	}

	res, err := Rewrite(page, lits, keys, DefaultOptions())
	require.NoError(t, err)

	want := `import React from 'react';
import { useTranslation } from 'react-i18next';

const Foo: React.FC = () => {
  const { t } = useTranslation();

  return (
    <div>
      <h2>{t('pages.foo.index_0')}</h2>
      <Input title={t('pages.foo.index_1')} />
    </div>
  );
};
`
	assert.Equal(t, want, res.Text)
	assert.Equal(t, 2, res.Replaced)
	assert.True(t, res.ImportAdded)
	assert.True(t, res.DeclAdded)
	assert.Empty(t, res.Warnings)

	// Nothing is left to extract and a second pass is a no-op.
	again := scan.Strict(res.Text)
	assert.Empty(t, again)
	second, err := Rewrite(res.Text, again, keys, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, second.Changed())
	assert.Equal(t, res.Text, second.Text)
}

func TestRewritePlainStringAtTop(t *testing.T) {
	src := "const Foo = () => {\n  message.success('保存成功');\n};\n"
	res, err := Rewrite(src, scan.Strict(src), map[string]string{"保存成功": "pages.index_0"}, DefaultOptions())
	require.NoError(t, err)

	want := "import { useTranslation } from 'react-i18next';\n\n" +
		"const Foo = () => {\n  const { t } = useTranslation();\n\n  message.success(t('pages.index_0'));\n};\n"
	assert.Equal(t, want, res.Text)
}

func TestRewriteMultiLineImports(t *testing.T) {
	src := "import {\n  a,\n  b\n} from 'x'\nimport y from 'y'\n\nfunction Page() {\n  return <p>中文</p>;\n}\n"
	res, err := Rewrite(src, scan.Strict(src), map[string]string{"中文": "k"}, DefaultOptions())
	require.NoError(t, err)

	want := "import {\n  a,\n  b\n} from 'x'\nimport y from 'y'\nimport { useTranslation } from 'react-i18next';\n\n" +
		"function Page() {\n  const { t } = useTranslation();\n\n  return <p>{t('k')}</p>;\n}\n"
	assert.Equal(t, want, res.Text)
}

func TestRewriteAllOccurrencesShareKey(t *testing.T) {
	src := "<p>确定</p><Button>确定</Button>"
	res, err := Rewrite(src, scan.Strict(src), map[string]string{"确定": "pages.index_0"}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Replaced)
	assert.Contains(t, res.Text, "<p>{t('pages.index_0')}</p><Button>{t('pages.index_0')}</Button>")
	assert.True(t, res.ImportAdded)
	assert.False(t, res.DeclAdded)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "component declaration not found")
}

func TestRewriteKeepsExistingAccessor(t *testing.T) {
	src := "import { useTranslation } from 'react-i18next';\n\n" +
		"export default function Page() {\n  const { t, i18n } = useTranslation();\n  return <p>{t('old')}</p><span>新的</span>;\n}\n"
	res, err := Rewrite(src, scan.Strict(src), map[string]string{"新的": "pages.index_1"}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Replaced)
	assert.False(t, res.ImportAdded)
	assert.False(t, res.DeclAdded)
	assert.Contains(t, res.Text, "<span>{t('pages.index_1')}</span>")
}

func TestRewriteSkipsUnknownTexts(t *testing.T) {
	src := "<p>中文</p>"
	res, err := Rewrite(src, scan.Strict(src), map[string]string{}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, src, res.Text)
	assert.False(t, res.Changed())
}

func TestRewriteOutOfSync(t *testing.T) {
	lits := []scan.Literal{{Text: "中文", Original: "'中文'", Pos: 3}}
	_, err := Rewrite("x = '中文';", lits, map[string]string{"中文": "k"}, DefaultOptions())
	assert.ErrorIs(t, err, ErrOutOfSync)
}

func TestRewriteCustomAccessor(t *testing.T) {
	src := "function Card() {\n  return <b>标题</b>;\n}\n"
	opts := Options{Func: "$t", Hook: "useI18n", Module: "vue-i18n"}
	res, err := Rewrite(src, scan.Strict(src), map[string]string{"标题": "card.index_0"}, opts)
	require.NoError(t, err)

	assert.Contains(t, res.Text, "import { useI18n } from 'vue-i18n';")
	assert.Contains(t, res.Text, "const { $t } = useI18n();")
	assert.Contains(t, res.Text, "<b>{$t('card.index_0')}</b>")
}

func TestRewriteQuotedMarkupText(t *testing.T) {
	src := "function Page() {\n  return <p>\"你好\"</p>;\n}\n"
	res, err := Rewrite(src, scan.Strict(src), map[string]string{"你好": "k"}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Replaced)
	assert.Contains(t, res.Text, "return <p>{t('k')}</p>;")
}

func TestRewriteDefaultParameter(t *testing.T) {
	src := "function greet(name = '访客') {\n  return name;\n}\n"
	res, err := Rewrite(src, scan.Strict(src), map[string]string{"访客": "k"}, DefaultOptions())
	require.NoError(t, err)

	assert.Contains(t, res.Text, "function greet(name = t('k'))")
}
