package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"clinical-trials-agent-backend/response"
	"clinical-trials-agent-backend/service/chat"
	"clinical-trials-agent-backend/service/session"

	"github.com/gin-gonic/gin"
)

var (
	ErrParseRequest = errors.New("failed to parse request")

	ErrGenerateToken = errors.New("failed to generate token")
	ErrRenderSession = errors.New("failed to render session")
	ErrNavigate      = errors.New("failed to switch view")

	ErrUpdateFilters = errors.New("failed to update filters")
	ErrSearchTrials  = errors.New("failed to search trials")
	ErrSelectStudy   = errors.New("failed to load study")

	ErrSendMessage = errors.New("failed to send message")
)

// statusOf 将服务层错误映射为 HTTP 状态码，未识别的错误视为上游拉取失败
func statusOf(err error) int {
	switch {
	case errors.Is(err, session.ErrInvalidQuery),
		errors.Is(err, session.ErrInvalidView),
		errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrNoDataset),
		errors.Is(err, chat.ErrAwaitingReply):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// abortWithError 客户端错误返回具体原因，上游错误只返回 op。
// data 非空时一并返回，便于前端按最新状态重新渲染
func abortWithError(c *gin.Context, op error, err error, data any) {
	status := statusOf(err)
	msg := op.Error()
	if status < http.StatusInternalServerError {
		msg = err.Error()
	}

	slog.Error(op.Error(), "err", err)
	c.AbortWithStatusJSON(status, response.Response{
		Data: data,
		Msg:  msg,
	})
}
