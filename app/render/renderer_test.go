package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/app/models"
)

func TestBuildValidLinks(t *testing.T) {
	valid := BuildValidLinks([]string{"my-post"}, []string{"pic"})

	assert.True(t, valid.Contains("/posts/my-post"))
	assert.True(t, valid.Contains("/posts/my-post/"))
	assert.True(t, valid.Contains("/images/pic"))
	assert.True(t, valid.Contains("/images/pic/original"))
	assert.True(t, valid.Contains("/images/pic/1000"))
	assert.True(t, valid.Contains("/images/pic/150"))
	assert.False(t, valid.Contains("/posts/other-post"))
	assert.False(t, valid.Contains("/images/pic/500"))
}

func TestRenderMarkdown(t *testing.T) {
	r := New()
	valid := BuildValidLinks([]string{"my-post"}, []string{"pic"})

	t.Run("basic markup", func(t *testing.T) {
		html, err := r.Render(models.ContentTypeMarkdown, "# Hello\n\nSome **bold** text.", valid)
		require.NoError(t, err)
		assert.Contains(t, html, "<h1 id=\"hello\">Hello</h1>")
		assert.Contains(t, html, "<strong>bold</strong>")
	})

	t.Run("gfm table", func(t *testing.T) {
		html, err := r.Render(models.ContentTypeMarkdown, "| a | b |\n|---|---|\n| 1 | 2 |", valid)
		require.NoError(t, err)
		assert.Contains(t, html, "<table>")
	})

	t.Run("fenced code highlights with classes", func(t *testing.T) {
		html, err := r.Render(models.ContentTypeMarkdown, "```go\nfunc main() {}\n```", valid)
		require.NoError(t, err)
		assert.Contains(t, html, "class=\"chroma\"")
	})

	t.Run("internal links resolve", func(t *testing.T) {
		content := "[see](/posts/my-post) and ![img](/images/pic/1000)"
		_, err := r.Render(models.ContentTypeMarkdown, content, valid)
		assert.NoError(t, err)
	})

	t.Run("dangling internal link rejected", func(t *testing.T) {
		_, err := r.Render(models.ContentTypeMarkdown, "[gone](/posts/no-such-post)", valid)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "/posts/no-such-post")
	})

	t.Run("dangling image rejected", func(t *testing.T) {
		_, err := r.Render(models.ContentTypeMarkdown, "![gone](/images/no-such-pic)", valid)
		assert.Error(t, err)
	})

	t.Run("external links pass through", func(t *testing.T) {
		html, err := r.Render(models.ContentTypeMarkdown, "[out](https://example.com/nowhere)", valid)
		require.NoError(t, err)
		assert.Contains(t, html, "https://example.com/nowhere")
	})
}

func TestRenderRestructuredText(t *testing.T) {
	r := New()
	html, err := r.Render(models.ContentTypeRestructuredText, "Title\n=====\n\n<script>", nil)
	require.NoError(t, err)
	assert.Equal(t, "<pre>Title\n=====\n\n&lt;script&gt;</pre>\n", html)
}

func TestRenderUnknownContentType(t *testing.T) {
	r := New()
	_, err := r.Render(models.ContentType("asciidoc"), "text", nil)
	assert.Error(t, err)
}
