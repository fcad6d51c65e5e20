package overview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quarkloom/sitesearch/internal/pkg/cache"
	"github.com/quarkloom/sitesearch/internal/search/types"
)

type stubLLM struct {
	calls      int
	lastPrompt string
	response   string
	err        error
}

func (s *stubLLM) Complete(ctx context.Context, system, user string) (string, error) {
	s.calls++
	s.lastPrompt = user
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func newTestSynthesizer(llm *stubLLM) (*Synthesizer, *cache.Cache[string]) {
	overviews := cache.New[string]("overview", 60*time.Minute)
	return New(llm, overviews, nil), overviews
}

func results(ids ...string) []*types.SearchResult {
	out := make([]*types.SearchResult, len(ids))
	for i, id := range ids {
		out[i] = &types.SearchResult{
			ID:          id,
			Title:       "Title " + id,
			Description: "Description for " + id,
		}
	}
	return out
}

func TestSummarize_EmptyInputs(t *testing.T) {
	llm := &stubLLM{}
	s, overviews := newTestSynthesizer(llm)

	assert.Empty(t, s.Summarize(context.Background(), "", results("a")))
	assert.Empty(t, s.Summarize(context.Background(), "query", nil))
	assert.Equal(t, 0, llm.calls)
	assert.Equal(t, 0, overviews.Len(), "empty inputs bypass the cache entirely")
}

func TestSummarize_SuccessCached(t *testing.T) {
	llm := &stubLLM{response: "  These results cover Docker networking.  "}
	s, _ := newTestSynthesizer(llm)
	res := results("a", "b", "c")

	got := s.Summarize(context.Background(), "docker", res)
	assert.Equal(t, "These results cover Docker networking.", got)

	again := s.Summarize(context.Background(), "docker", res)
	assert.Equal(t, got, again)
	assert.Equal(t, 1, llm.calls)
}

func TestSummarize_FailureCachedAsEmpty(t *testing.T) {
	llm := &stubLLM{err: errors.New("timeout")}
	s, overviews := newTestSynthesizer(llm)
	res := results("a", "b")

	assert.Empty(t, s.Summarize(context.Background(), "docker", res))
	assert.Equal(t, 1, overviews.Len(), "a failed summarization is cached as empty")

	// Within the TTL the failure is not retried on every request.
	assert.Empty(t, s.Summarize(context.Background(), "docker", res))
	assert.Equal(t, 1, llm.calls)
}

func TestSummarize_KeyUsesTopThreeIdentity(t *testing.T) {
	llm := &stubLLM{response: "summary"}
	s, _ := newTestSynthesizer(llm)

	// Same first three results: one service call.
	s.Summarize(context.Background(), "docker", results("a", "b", "c", "d"))
	s.Summarize(context.Background(), "docker", results("a", "b", "c", "e"))
	assert.Equal(t, 1, llm.calls)

	// Different top three: the result set shifted, recompute.
	s.Summarize(context.Background(), "docker", results("a", "b", "x"))
	assert.Equal(t, 2, llm.calls)
}

func TestSummarize_PromptBounded(t *testing.T) {
	llm := &stubLLM{response: "summary"}
	s, _ := newTestSynthesizer(llm)

	res := results("a", "b", "c", "d", "e", "f", "g")
	res[0].Description = strings.Repeat("x", 1000)

	s.Summarize(context.Background(), "docker", res)

	assert.NotContains(t, llm.lastPrompt, "Title f", "only the top 5 feed the prompt")
	assert.NotContains(t, llm.lastPrompt, strings.Repeat("x", 201), "snippets are truncated to 200 chars")
}
