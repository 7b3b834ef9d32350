package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"clinical-trials-agent-backend/config"
	"clinical-trials-agent-backend/utils"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// FallbackReply 模型无法给出回复时返回的固定道歉语
const FallbackReply = "Sorry, I don't know the answer to that."

var ErrEmptyReply = errors.New("model returned an empty reply")

// GatewayError 重试耗尽后的模型调用错误，不会传出 Complete
type GatewayError struct {
	Attempts uint
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("llm call failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

type Gateway struct {
	llm         llms.Model
	retryPolicy utils.RetryPolicy
	callOptions []llms.CallOption
}

func NewGateway(llm llms.Model, retryPolicy utils.RetryPolicy, callOptions ...llms.CallOption) *Gateway {
	return &Gateway{
		llm:         llm,
		retryPolicy: retryPolicy,
		callOptions: callOptions,
	}
}

// NewOpenAIGateway 基于 OpenAI 兼容接口创建网关
func NewOpenAIGateway(modelCfg config.ModelConfig, retryCfg config.RetryConfig) (*Gateway, error) {
	llm, err := openai.New(
		openai.WithModel(modelCfg.Name),
		openai.WithToken(modelCfg.APIKey),
		openai.WithBaseURL(modelCfg.BaseURL),
		openai.WithHTTPClient(utils.NewHTTPClient(utils.WithTimeout(modelCfg.Timeout))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	var opts []llms.CallOption
	if modelCfg.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(modelCfg.Temperature))
	}
	if modelCfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(modelCfg.MaxTokens))
	}

	return NewGateway(llm, utils.NewRetryPolicy("llm", retryCfg), opts...), nil
}

// Complete 发送完整对话并返回助手回复。调用失败或回复为空时返回 FallbackReply，从不返回错误
func (g *Gateway) Complete(ctx context.Context, history schema.ChatMessageHistory) string {
	reply, err := g.Generate(ctx, history)
	if err != nil {
		if errors.Is(err, ErrEmptyReply) {
			slog.Warn("LLM returned an empty reply, using fallback")
		} else {
			slog.Error("LLM call failed, using fallback", "err", err)
		}
		return FallbackReply
	}
	return reply
}

// Generate 按重试策略调用模型。空回复不重试，返回 ErrEmptyReply。
// ctx 中带有 StreamHandler 时以流式方式调用
func (g *Gateway) Generate(ctx context.Context, history schema.ChatMessageHistory) (string, error) {
	msgs, err := history.Messages(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation: %w", err)
	}

	content := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		content = append(content, llms.TextParts(m.GetType(), m.GetContent()))
	}

	opts := g.callOptions
	stream := streamHandlerFrom(ctx)
	if stream != nil {
		opts = append(opts[:len(opts):len(opts)], llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			stream.HandleChunk(string(chunk))
			return nil
		}))
	}

	var (
		reply   string
		attempt uint
	)
	err = g.retryPolicy.Do(ctx, func() error {
		attempt++
		if stream != nil && attempt > 1 {
			stream.HandleReset(attempt)
		}

		resp, err := g.llm.GenerateContent(ctx, content, opts...)
		if err != nil {
			return err
		}
		reply = ""
		if resp != nil && len(resp.Choices) > 0 {
			reply = strings.TrimSpace(resp.Choices[0].Content)
		}
		return nil
	})
	if err != nil {
		return "", &GatewayError{Attempts: g.retryPolicy.Attempts, Err: err}
	}
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}
