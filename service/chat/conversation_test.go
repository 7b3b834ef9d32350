package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

const datasetJSON = `[{"nctId":"NCT00000001","briefTitle":"A study"}]`

func TestNewConversation_ShouldStartWithSingleSystemTurn(t *testing.T) {
	c := NewConversation(TrialsPrompt)

	require.Equal(t, 1, c.Len())
	assert.Equal(t, RoleSystem, c.SystemTurn().Role)
	assert.Equal(t, "", c.Dataset())
	assert.False(t, c.AwaitingReply())
}

func TestReseed_ShouldEmbedDatasetAndDropOtherTurns(t *testing.T) {
	c := NewConversation(TrialsPrompt)
	require.NoError(t, c.AppendUser("hello"))
	require.NoError(t, c.AppendAssistant("hi"))

	c.Reseed(datasetJSON)

	turns := c.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, RoleSystem, turns[0].Role)
	assert.Equal(t, TrialsPrompt.Render(datasetJSON), turns[0].Content)
	assert.Contains(t, turns[0].Content, datasetJSON)
	assert.Contains(t, turns[0].Content, "answers questions on clinical trials information")
	assert.Equal(t, datasetJSON, c.Dataset())
}

func TestStudyPrompt_ShouldUseDetailWording(t *testing.T) {
	c := NewConversation(StudyPrompt)
	c.Reseed(`{"nctId":"NCT00000001"}`)

	assert.Contains(t, c.SystemTurn().Content, "answers questions about clinical trials provided as json below")
	assert.Contains(t, c.SystemTurn().Content, `{"nctId":"NCT00000001"}`)
}

func TestReset_ShouldBeIdempotent(t *testing.T) {
	c := NewConversation(TrialsPrompt)
	c.Reseed(datasetJSON)
	require.NoError(t, c.AppendUser("q1"))
	require.NoError(t, c.AppendAssistant("a1"))

	c.Reset()
	once := c.Turns()
	c.Reset()
	twice := c.Turns()

	assert.Equal(t, once, twice)
	require.Len(t, twice, 1)
	assert.Equal(t, datasetJSON, c.Dataset())
}

func TestAppend_ShouldEnforceAlternation(t *testing.T) {
	c := NewConversation(TrialsPrompt)

	assert.ErrorIs(t, c.AppendAssistant("orphan"), ErrNoPendingUser)
	assert.ErrorIs(t, c.AppendUser("   "), ErrEmptyMessage)

	require.NoError(t, c.AppendUser("q1"))
	assert.True(t, c.AwaitingReply())
	assert.ErrorIs(t, c.AppendUser("q2"), ErrAwaitingReply)

	require.NoError(t, c.AppendAssistant("a1"))
	assert.Equal(t, 3, c.Len())
}

func TestExchanges_ShouldPairTurnsAndSkipPendingUser(t *testing.T) {
	c := NewConversation(TrialsPrompt)
	require.NoError(t, c.AppendUser("q1"))
	require.NoError(t, c.AppendAssistant("a1"))
	require.NoError(t, c.AppendUser("q2"))

	past, generated := c.Exchanges()
	assert.Equal(t, []string{"q1"}, past)
	assert.Equal(t, []string{"a1"}, generated)

	c.Reset()
	past, generated = c.Exchanges()
	assert.Empty(t, past)
	assert.NotNil(t, generated)
}

func TestChatMessageHistory_ShouldMapRoles(t *testing.T) {
	ctx := context.Background()
	c := NewConversation(TrialsPrompt)

	require.NoError(t, c.AddUserMessage(ctx, "q1"))
	require.NoError(t, c.AddAIMessage(ctx, "a1"))
	assert.ErrorIs(t, c.AddMessage(ctx, llms.SystemChatMessage{Content: "x"}), ErrSystemImmutable)

	msgs, err := c.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, llms.ChatMessageTypeSystem, msgs[0].GetType())
	assert.Equal(t, llms.ChatMessageTypeHuman, msgs[1].GetType())
	assert.Equal(t, llms.ChatMessageTypeAI, msgs[2].GetType())

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 1, c.Len())
}

func TestSetMessages_ShouldKeepSystemTurnAndRejectBrokenAlternation(t *testing.T) {
	ctx := context.Background()
	c := NewConversation(TrialsPrompt)
	c.Reseed(datasetJSON)
	system := c.SystemTurn()

	err := c.SetMessages(ctx, []llms.ChatMessage{
		llms.SystemChatMessage{Content: "ignored"},
		llms.HumanChatMessage{Content: "q1"},
		llms.AIChatMessage{Content: "a1"},
	})
	require.NoError(t, err)
	assert.Equal(t, system, c.SystemTurn())
	assert.Equal(t, 3, c.Len())

	err = c.SetMessages(ctx, []llms.ChatMessage{
		llms.HumanChatMessage{Content: "q1"},
		llms.HumanChatMessage{Content: "q2"},
	})
	assert.ErrorIs(t, err, ErrAwaitingReply)
	assert.Equal(t, 3, c.Len())
}
