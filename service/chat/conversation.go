package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrAwaitingReply   = errors.New("previous user message has no reply yet")
	ErrNoPendingUser   = errors.New("no user message to reply to")
	ErrSystemImmutable = errors.New("system turn can only be regenerated by reseeding")
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation 对话上下文。第 0 轮始终是由当前数据集生成的系统轮次，
// 其后用户与助手轮次严格交替，仅追加，直到重新播种或清空
type Conversation struct {
	prompt  *PromptTemplate
	dataset string
	turns   []Turn
}

var _ schema.ChatMessageHistory = &Conversation{}

func NewConversation(prompt *PromptTemplate) *Conversation {
	c := &Conversation{prompt: prompt}
	c.Reseed("")
	return c
}

// Reseed 用新数据集重新生成系统轮次并清除其余轮次
func (c *Conversation) Reseed(datasetJSON string) {
	c.dataset = datasetJSON
	c.turns = []Turn{{
		Role:    RoleSystem,
		Content: c.prompt.Render(datasetJSON),
	}}
}

// Reset 清空对话并以最近的数据集重新播种
func (c *Conversation) Reset() {
	c.Reseed(c.dataset)
}

func (c *Conversation) Dataset() string {
	return c.dataset
}

func (c *Conversation) SystemTurn() Turn {
	return c.turns[0]
}

func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Clone 返回独立副本，供模型调用期间只读使用
func (c *Conversation) Clone() *Conversation {
	return &Conversation{
		prompt:  c.prompt,
		dataset: c.dataset,
		turns:   c.Turns(),
	}
}

func (c *Conversation) Len() int {
	return len(c.turns)
}

// AwaitingReply 最后一轮为用户消息时返回 true
func (c *Conversation) AwaitingReply() bool {
	return c.turns[len(c.turns)-1].Role == RoleUser
}

func (c *Conversation) AppendUser(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if c.AwaitingReply() {
		return ErrAwaitingReply
	}
	c.turns = append(c.turns, Turn{Role: RoleUser, Content: text})
	return nil
}

func (c *Conversation) AppendAssistant(text string) error {
	if !c.AwaitingReply() {
		return ErrNoPendingUser
	}
	c.turns = append(c.turns, Turn{Role: RoleAssistant, Content: text})
	return nil
}

// Exchanges 返回仅用于展示的用户/助手平行列表。
// 末尾尚未得到回复的用户消息不计入
func (c *Conversation) Exchanges() (past, generated []string) {
	past, generated = []string{}, []string{}
	for i := 1; i+1 < len(c.turns); i += 2 {
		past = append(past, c.turns[i].Content)
		generated = append(generated, c.turns[i+1].Content)
	}
	return past, generated
}

// Messages 以 langchaingo 消息形式返回全部轮次
func (c *Conversation) Messages(_ context.Context) ([]llms.ChatMessage, error) {
	msgs := make([]llms.ChatMessage, 0, len(c.turns))
	for _, t := range c.turns {
		switch t.Role {
		case RoleSystem:
			msgs = append(msgs, llms.SystemChatMessage{Content: t.Content})
		case RoleUser:
			msgs = append(msgs, llms.HumanChatMessage{Content: t.Content})
		case RoleAssistant:
			msgs = append(msgs, llms.AIChatMessage{Content: t.Content})
		}
	}
	return msgs, nil
}

func (c *Conversation) AddMessage(_ context.Context, message llms.ChatMessage) error {
	switch message.GetType() {
	case llms.ChatMessageTypeHuman:
		return c.AppendUser(message.GetContent())
	case llms.ChatMessageTypeAI:
		return c.AppendAssistant(message.GetContent())
	case llms.ChatMessageTypeSystem:
		return ErrSystemImmutable
	}
	return errors.New("unsupported message type: " + string(message.GetType()))
}

func (c *Conversation) AddUserMessage(_ context.Context, text string) error {
	return c.AppendUser(text)
}

func (c *Conversation) AddAIMessage(_ context.Context, text string) error {
	return c.AppendAssistant(text)
}

func (c *Conversation) Clear(_ context.Context) error {
	c.Reset()
	return nil
}

// SetMessages 保留系统轮次，用给定消息替换其余轮次。
// 输入中的系统消息被忽略；违反交替规则时不做任何修改
func (c *Conversation) SetMessages(ctx context.Context, messages []llms.ChatMessage) error {
	next := &Conversation{prompt: c.prompt}
	next.Reseed(c.dataset)
	for _, m := range messages {
		if m.GetType() == llms.ChatMessageTypeSystem {
			continue
		}
		if err := next.AddMessage(ctx, m); err != nil {
			return err
		}
	}
	c.turns = next.turns
	return nil
}
