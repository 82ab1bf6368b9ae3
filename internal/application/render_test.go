package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/threadboard/threadboard/internal/application"
	"github.com/threadboard/threadboard/internal/domain/model"
)

func TestRenderCommentHTML_MarkdownAndSanitization(t *testing.T) {
	t.Run("renders basic markdown", func(t *testing.T) {
		out := application.RenderCommentHTML("some **bold** text", nil)
		assert.Contains(t, out, "<strong>bold</strong>")
	})

	t.Run("strips script tags", func(t *testing.T) {
		out := application.RenderCommentHTML(`hello <script>alert("x")</script>`, nil)
		assert.NotContains(t, out, "<script>")
		assert.Contains(t, out, "hello")
	})

	t.Run("empty input renders nothing", func(t *testing.T) {
		assert.Equal(t, "", application.RenderCommentHTML("", nil))
	})
}

func TestRenderCommentHTML_MentionSpans(t *testing.T) {
	idx := testIndex()

	out := application.RenderCommentHTML("ping @Alice Chen about this", idx)
	assert.Contains(t, out, `class="mention"`)
	assert.Contains(t, out, `data-mention-type="user"`)
	assert.Contains(t, out, `data-mention-label="Alice Chen"`)
	assert.Contains(t, out, "@Alice Chen")
}

func TestRenderCommentHTML_UnresolvedTokenStaysPlain(t *testing.T) {
	out := application.RenderCommentHTML("cc @Nobody Special", testIndex())
	assert.NotContains(t, out, "<span")
	assert.Contains(t, out, "@Nobody Special")
}

func TestRenderMentionMeta(t *testing.T) {
	assert.Equal(t, "Draft homepage - Apr 10, 2026",
		application.RenderMentionMeta(model.MentionItem{Label: "Draft homepage", Meta: "Apr 10, 2026"}))
	assert.Equal(t, "brief.pdf",
		application.RenderMentionMeta(model.MentionItem{Label: "brief.pdf"}))
}
