package utils

import "github.com/gin-gonic/gin"

const (
	// 已收到用户消息，等待模型回复
	EventPending = "pending"
	// 模型回复的流式分片
	EventAnswerChunk = "answer_chunk"
	// 模型调用重试，丢弃已收到的分片
	EventReset       = "reset"
	EventFinalAnswer = "final_answer"
	EventSnapshot    = "snapshot"
	EventError       = "error"
	EventDone        = "done"
)

func SetSSEHeaders(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

func SendSSEMessage(c *gin.Context, event string, data any) {
	c.SSEvent(event, data)
	c.Writer.Flush()
}
