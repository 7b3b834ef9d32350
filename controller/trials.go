package controller

import (
	"log/slog"
	"net/http"

	"clinical-trials-agent-backend/middleware"
	"clinical-trials-agent-backend/request"
	"clinical-trials-agent-backend/response"

	"github.com/gin-gonic/gin"
)

// UpdateFilters 只更新筛选条件，不拉取数据
func (ctl *Controller) UpdateFilters(c *gin.Context) {
	var req request.FiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	s := middleware.CurrentSession(c)
	if err := ctl.Orchestrator.OnFilterChange(s, req.Query()); err != nil {
		abortWithError(c, ErrUpdateFilters, err, nil)
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.NewSnapshotResponse(s.Snapshot()),
	})
}

// SearchTrials 请求体可选，携带筛选条件时先更新再拉取
func (ctl *Controller) SearchTrials(c *gin.Context) {
	s := middleware.CurrentSession(c)

	if c.Request.ContentLength > 0 {
		var req request.FiltersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Error(ErrParseRequest.Error(), "err", err)
			c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
				Msg: ErrParseRequest.Error(),
			})
			return
		}
		if err := ctl.Orchestrator.OnFilterChange(s, req.Query()); err != nil {
			abortWithError(c, ErrUpdateFilters, err, nil)
			return
		}
	}

	if err := ctl.Orchestrator.OnSubmitQuery(c.Request.Context(), s); err != nil {
		abortWithError(c, ErrSearchTrials, err, response.NewSnapshotResponse(s.Snapshot()))
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.NewSnapshotResponse(s.Snapshot()),
	})
}

func (ctl *Controller) SelectStudy(c *gin.Context) {
	var req request.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	s := middleware.CurrentSession(c)
	if err := ctl.Orchestrator.OnSelectionChange(c.Request.Context(), s, req.StudyID); err != nil {
		abortWithError(c, ErrSelectStudy, err, response.NewSnapshotResponse(s.Snapshot()))
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.NewSnapshotResponse(s.Snapshot()),
	})
}
