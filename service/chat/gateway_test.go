package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinical-trials-agent-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	replies  []string
	errs     []error
	calls    int
	messages []llms.MessageContent
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	i := m.calls
	m.calls++
	m.messages = messages

	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}

	if i < len(m.errs) && m.errs[i] != nil {
		if opts.StreamingFunc != nil {
			_ = opts.StreamingFunc(ctx, []byte("partial"))
		}
		return nil, m.errs[i]
	}
	reply := ""
	if i < len(m.replies) {
		reply = m.replies[i]
	}
	if opts.StreamingFunc != nil {
		_ = opts.StreamingFunc(ctx, []byte(reply))
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: reply}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type recordingTimer struct {
	waits []time.Duration
}

func (t *recordingTimer) After(d time.Duration) <-chan time.Time {
	t.waits = append(t.waits, d)
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func newTestGateway(llm llms.Model, timer *recordingTimer) *Gateway {
	return NewGateway(llm, utils.RetryPolicy{
		Name:      "llm-test",
		Attempts:  3,
		MinDelay:  time.Second,
		MaxDelay:  20 * time.Second,
		MaxJitter: time.Second,
		Timer:     timer,
	})
}

func conversationWithQuestion(t *testing.T) *Conversation {
	t.Helper()
	c := NewConversation(TrialsPrompt)
	c.Reseed(datasetJSON)
	require.NoError(t, c.AppendUser("How many trials are recruiting?"))
	return c
}

func TestComplete_ShouldReturnModelReply(t *testing.T) {
	llm := &fakeModel{replies: []string{"  One trial.  "}}
	g := newTestGateway(llm, &recordingTimer{})

	reply := g.Complete(context.Background(), conversationWithQuestion(t))

	assert.Equal(t, "One trial.", reply)
	assert.Equal(t, 1, llm.calls)
	require.Len(t, llm.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, llm.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, llm.messages[1].Role)
	assert.Equal(t, llms.TextContent{Text: "How many trials are recruiting?"}, llm.messages[1].Parts[0])
}

func TestComplete_WhenAlwaysFailing_ShouldReturnFallbackWithinBudget(t *testing.T) {
	errDown := errors.New("provider unavailable")
	llm := &fakeModel{errs: []error{errDown, errDown, errDown, errDown}}
	timer := &recordingTimer{}
	g := newTestGateway(llm, timer)

	reply := g.Complete(context.Background(), conversationWithQuestion(t))

	assert.Equal(t, FallbackReply, reply)
	assert.Equal(t, 3, llm.calls)

	var total time.Duration
	for _, w := range timer.waits {
		assert.LessOrEqual(t, w, 20*time.Second)
		total += w
	}
	assert.LessOrEqual(t, total, 60*time.Second)
}

func TestComplete_WhenTransientFailure_ShouldRetryAndSucceed(t *testing.T) {
	llm := &fakeModel{
		errs:    []error{errors.New("timeout"), nil},
		replies: []string{"", "Recovered."},
	}
	g := newTestGateway(llm, &recordingTimer{})

	assert.Equal(t, "Recovered.", g.Complete(context.Background(), conversationWithQuestion(t)))
	assert.Equal(t, 2, llm.calls)
}

func TestComplete_WhenEmptyReply_ShouldReturnFallbackWithoutRetry(t *testing.T) {
	llm := &fakeModel{replies: []string{"   "}}
	g := newTestGateway(llm, &recordingTimer{})

	assert.Equal(t, FallbackReply, g.Complete(context.Background(), conversationWithQuestion(t)))
	assert.Equal(t, 1, llm.calls)
}

func TestGenerate_WhenExhausted_ShouldReturnGatewayError(t *testing.T) {
	errDown := errors.New("provider unavailable")
	llm := &fakeModel{errs: []error{errDown, errDown, errDown}}
	g := newTestGateway(llm, &recordingTimer{})

	_, err := g.Generate(context.Background(), conversationWithQuestion(t))

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, uint(3), gwErr.Attempts)
	assert.ErrorIs(t, err, errDown)
}

type recordingStream struct {
	chunks []string
	resets []uint
}

func (s *recordingStream) HandleChunk(chunk string) {
	s.chunks = append(s.chunks, chunk)
}

func (s *recordingStream) HandleReset(attempt uint) {
	s.resets = append(s.resets, attempt)
	s.chunks = nil
}

func TestComplete_WithStreamHandler_ShouldForwardChunksAndResetOnRetry(t *testing.T) {
	llm := &fakeModel{
		errs:    []error{errors.New("stream broken"), nil},
		replies: []string{"", "Recovered."},
	}
	g := newTestGateway(llm, &recordingTimer{})
	stream := &recordingStream{}
	ctx := WithStreamHandler(context.Background(), stream)

	reply := g.Complete(ctx, conversationWithQuestion(t))

	assert.Equal(t, "Recovered.", reply)
	assert.Equal(t, []uint{2}, stream.resets)
	assert.Equal(t, []string{"Recovered."}, stream.chunks)
}
