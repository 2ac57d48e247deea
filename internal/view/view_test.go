package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemHTML(t *testing.T) {
	r := NewRenderer()

	out, err := r.ProblemHTML(Problem{
		Title:          "Two <Sum>",
		Difficulty:     "hard",
		URL:            "https://www.acmicpc.net/problem/1000",
		UnsubscribeURL: "https://hakote.dev/api/unsubscribe?subscription_id=abc",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Two &lt;Sum&gt;")
	assert.NotContains(t, out, "Two <Sum>")
	assert.Contains(t, out, "#EF4444")
	assert.Contains(t, out, `href="https://www.acmicpc.net/problem/1000"`)
	assert.Contains(t, out, "subscription_id=abc")
}

func TestProblemHTMLUnknownDifficulty(t *testing.T) {
	out, err := NewRenderer().ProblemHTML(Problem{Title: "A", Difficulty: "silver"})
	require.NoError(t, err)
	assert.Contains(t, out, "#6B7280")
}

func TestProblemText(t *testing.T) {
	out, err := NewRenderer().ProblemText(Problem{Title: "A+B", Difficulty: "easy", URL: "https://x/1", UnsubscribeURL: "https://x/u"})
	require.NoError(t, err)
	assert.Contains(t, out, "A+B [easy]")
	assert.Contains(t, out, "구독 해지: https://x/u")
}

func TestUnsubscribePage(t *testing.T) {
	r := NewRenderer()

	ok, err := r.UnsubscribePage("구독 해지가 완료되었습니다.", true)
	require.NoError(t, err)
	assert.Contains(t, ok, "구독 해지 완료")
	assert.Contains(t, ok, "#10B981")

	failed, err := r.UnsubscribePage("<script>", false)
	require.NoError(t, err)
	assert.Contains(t, failed, "오류 발생")
	assert.Contains(t, failed, "&lt;script&gt;")
}
