package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	p := ParsePagination("", "")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.Limit)
	assert.Equal(t, 0, p.Offset())

	p = ParsePagination("3", "20")
	assert.Equal(t, 40, p.Offset())

	p = ParsePagination("-2", "1000")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.Limit)

	p = ParsePagination("abc", "0")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.Limit)
}

func TestPaginationWithTotal(t *testing.T) {
	p := ParsePagination("1", "10")
	assert.Equal(t, 1, p.WithTotal(0).TotalPages)
	assert.Equal(t, 1, p.WithTotal(10).TotalPages)
	assert.Equal(t, 2, p.WithTotal(11).TotalPages)
	assert.Equal(t, int64(11), p.WithTotal(11).Total)
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("15")
	assert.True(t, ok)
	assert.Equal(t, uint(15), id)

	for _, bad := range []string{"", "0", "-1", "x1", "1.5"} {
		_, ok := ParseID(bad)
		assert.False(t, ok, bad)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Boletim ", "#boletim", "", "OFÍCIO", "a", "b"}, 3)
	assert.Equal(t, []string{"boletim", "ofício", "a"}, got)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `%50\%\_a\\b%`, ContainsPattern(`50%_a\b`))
	assert.Equal(t, "policia civil", EscapeLike("policia civil"))
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("**negrito** <script>alert(1)</script>\n\n```\nprompt\n```\n\n![x](https://img.example/x.png)")
	assert.Contains(t, out, "<strong>negrito</strong>")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "prompt-block")
	assert.Contains(t, out, `loading="lazy"`)
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestTTLCache(t *testing.T) {
	c, err := NewTTLCache[int](2)
	require.NoError(t, err)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("a", 1, time.Minute)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.Set("b", 2, time.Minute)
	c.Delete("b")
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestEnhanceHTMLContent(t *testing.T) {
	out := EnhanceHTMLContent(`<p>x</p><img src="a.png">`)
	assert.True(t, strings.HasPrefix(out, "<p>x</p>"))
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
}
