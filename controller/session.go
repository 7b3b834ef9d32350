package controller

import (
	"log/slog"
	"net/http"

	"clinical-trials-agent-backend/middleware"
	"clinical-trials-agent-backend/model"
	"clinical-trials-agent-backend/request"
	"clinical-trials-agent-backend/response"
	"clinical-trials-agent-backend/service/session"

	"github.com/gin-gonic/gin"
)

// Controller 处理 UI 的各类回调，每个回调结束后返回最新快照
type Controller struct {
	Store        *session.Store
	Orchestrator *session.Orchestrator
}

func New(store *session.Store, orchestrator *session.Orchestrator) *Controller {
	return &Controller{
		Store:        store,
		Orchestrator: orchestrator,
	}
}

func (ctl *Controller) CreateSession(c *gin.Context) {
	s := ctl.Store.Create()

	token, err := middleware.GenerateToken(s.ID)
	if err != nil {
		ctl.Store.Delete(s.ID)
		slog.Error(ErrGenerateToken.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGenerateToken.Error(),
		})
		return
	}

	slog.Info("Session created", "session_id", s.ID)
	c.JSON(http.StatusCreated, response.Response{
		Data: response.CreateSessionResponse{
			Token:    token,
			Snapshot: response.NewSnapshotResponse(s.Snapshot()),
		},
	})
}

// GetSession 渲染当前视图，导航后的首次渲染会拉取数据
func (ctl *Controller) GetSession(c *gin.Context) {
	s := middleware.CurrentSession(c)
	snap, err := ctl.Orchestrator.Render(c.Request.Context(), s)
	if err != nil {
		abortWithError(c, ErrRenderSession, err, response.NewSnapshotResponse(snap))
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.NewSnapshotResponse(snap),
	})
}

func (ctl *Controller) EndSession(c *gin.Context) {
	s := middleware.CurrentSession(c)
	ctl.Store.Delete(s.ID)

	slog.Info("Session ended", "session_id", s.ID)
	c.JSON(http.StatusOK, response.Response{})
}

func (ctl *Controller) Navigate(c *gin.Context) {
	var req request.ViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	s := middleware.CurrentSession(c)
	if err := ctl.Orchestrator.Navigate(s, session.View(req.View)); err != nil {
		abortWithError(c, ErrNavigate, err, nil)
		return
	}

	snap, err := ctl.Orchestrator.Render(c.Request.Context(), s)
	if err != nil {
		abortWithError(c, ErrRenderSession, err, response.NewSnapshotResponse(snap))
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.NewSnapshotResponse(snap),
	})
}

func (ctl *Controller) GetStatuses(c *gin.Context) {
	statuses := make([]string, 0, len(model.Statuses))
	for _, s := range model.Statuses {
		statuses = append(statuses, string(s))
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.GetStatusesResponse{
			Statuses: statuses,
		},
	})
}
