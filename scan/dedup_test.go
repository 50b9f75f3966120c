package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lits(texts ...string) []Literal {
	out := make([]Literal, len(texts))
	for i, s := range texts {
		out[i] = Literal{Text: s, Original: s, Pos: i * 10}
	}
	return out
}

func TestUniqueKeepsFirstOccurrence(t *testing.T) {
	in := lits("甲", "乙", "甲", "丙", "乙")
	out := Unique(in)

	assert.Equal(t, []string{"甲", "乙", "丙"}, Texts(out))
	assert.Equal(t, 0, out[0].Pos)
	assert.Equal(t, 10, out[1].Pos)
	assert.Equal(t, 30, out[2].Pos)
}

func TestCollapseLongerSupersedesShorter(t *testing.T) {
	out := Collapse(lits("中", "中文", "文"))
	assert.Equal(t, []string{"中文"}, Texts(out))
}

func TestCollapseReplacesSeveralAccepted(t *testing.T) {
	out := Collapse(lits("中文", "文字", "删除", "中文字"))
	assert.Equal(t, []string{"删除", "中文字"}, Texts(out))
}

func TestCollapseOrderFollowsAcceptance(t *testing.T) {
	a := Collapse(lits("用户", "用户名", "名称"))
	b := Collapse(lits("名称", "用户", "用户名"))

	assert.Equal(t, []string{"用户名", "名称"}, Texts(a))
	assert.Equal(t, []string{"名称", "用户名"}, Texts(b))
}

func TestCollapseContainmentLaw(t *testing.T) {
	src := "<p>确定</p><p>确定删除吗？</p><p>删除</p><p>取消</p><p>确定</p><p>删除成功</p><p>成功</p>"
	out := Collapse(Loose(src))
	require.NotEmpty(t, out)

	for i, a := range out {
		for j, b := range out {
			if i == j {
				continue
			}
			assert.False(t, strings.Contains(a.Text, b.Text), "%q contains %q", a.Text, b.Text)
		}
	}
	assert.Equal(t, []string{"确定删除吗？", "取消", "删除成功"}, Texts(out))
}
