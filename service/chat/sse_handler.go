package chat

import (
	"context"
	"strings"

	"clinical-trials-agent-backend/utils"

	"github.com/gin-gonic/gin"
)

// StreamHandler 接收模型回复的流式分片。
// 重试开始前调用 HandleReset，之前收到的分片应被丢弃
type StreamHandler interface {
	HandleChunk(chunk string)
	HandleReset(attempt uint)
}

type streamHandlerKey struct{}

func WithStreamHandler(ctx context.Context, h StreamHandler) context.Context {
	return context.WithValue(ctx, streamHandlerKey{}, h)
}

func streamHandlerFrom(ctx context.Context) StreamHandler {
	h, _ := ctx.Value(streamHandlerKey{}).(StreamHandler)
	return h
}

// GinSSEHandler 基于 Gin 的流式处理器，使用 SSE 发送模型输出的分片
type GinSSEHandler struct {
	Ctx     *gin.Context
	Session string

	// 当前尝试已输出的内容
	Partial *strings.Builder
}

var _ StreamHandler = &GinSSEHandler{}

func NewGinSSEHandler(ctx *gin.Context, session string) *GinSSEHandler {
	return &GinSSEHandler{
		Ctx:     ctx,
		Session: session,
		Partial: &strings.Builder{},
	}
}

func (h *GinSSEHandler) HandleChunk(chunk string) {
	if chunk == "" {
		return
	}
	h.Partial.WriteString(chunk)
	utils.SendSSEMessage(h.Ctx, utils.EventAnswerChunk, chunk)
}

func (h *GinSSEHandler) HandleReset(attempt uint) {
	h.Partial.Reset()
	utils.SendSSEMessage(h.Ctx, utils.EventReset, attempt)
}
