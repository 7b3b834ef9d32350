package controller

import (
	"log/slog"
	"net/http"

	"clinical-trials-agent-backend/middleware"
	"clinical-trials-agent-backend/request"
	"clinical-trials-agent-backend/response"
	"clinical-trials-agent-backend/service/chat"
	"clinical-trials-agent-backend/utils"

	"github.com/gin-gonic/gin"
)

func (ctl *Controller) SendMessage(c *gin.Context) {
	var req request.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	s := middleware.CurrentSession(c)
	reply, err := ctl.Orchestrator.OnSendMessage(c.Request.Context(), s, req.Message)
	if err != nil {
		abortWithError(c, ErrSendMessage, err, nil)
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.ChatResponse{
			Reply:    reply,
			Snapshot: response.NewSnapshotResponse(s.Snapshot()),
		},
	})
}

// StreamMessage 以 SSE 返回：先发送 pending，随后转发模型输出分片，
// 最终发送完整的 final_answer 和最新快照
func (ctl *Controller) StreamMessage(c *gin.Context) {
	utils.SetSSEHeaders(c)

	var req request.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrParseRequest.Error())
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	s := middleware.CurrentSession(c)
	utils.SendSSEMessage(c, utils.EventPending, req.Message)

	ctx := chat.WithStreamHandler(c.Request.Context(), chat.NewGinSSEHandler(c, s.ID))
	reply, err := ctl.Orchestrator.OnSendMessage(ctx, s, req.Message)
	if err != nil {
		slog.Error(ErrSendMessage.Error(), "session_id", s.ID, "err", err)
		utils.SendSSEMessage(c, utils.EventError, err.Error())
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	utils.SendSSEMessage(c, utils.EventFinalAnswer, reply)
	utils.SendSSEMessage(c, utils.EventSnapshot, response.NewSnapshotResponse(s.Snapshot()))
	utils.SendSSEMessage(c, utils.EventDone, "")
}

func (ctl *Controller) ClearConversation(c *gin.Context) {
	s := middleware.CurrentSession(c)
	ctl.Orchestrator.OnClearConversation(s)

	c.JSON(http.StatusOK, response.Response{
		Data: response.NewSnapshotResponse(s.Snapshot()),
	})
}
