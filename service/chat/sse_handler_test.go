package chat

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGinSSEHandler_ShouldForwardChunksAndReset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h := NewGinSSEHandler(c, "test-session")
	h.HandleChunk("Hel")
	h.HandleChunk("")
	h.HandleReset(2)
	h.HandleChunk("Hello")

	assert.Equal(t, "Hello", h.Partial.String())
	body := w.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event:answer_chunk"))
	assert.Contains(t, body, "event:reset")
}

func TestStreamHandlerFrom_WhenAbsent_ShouldReturnNil(t *testing.T) {
	assert.Nil(t, streamHandlerFrom(context.Background()))

	h := &GinSSEHandler{Partial: &strings.Builder{}}
	assert.Same(t, h, streamHandlerFrom(WithStreamHandler(context.Background(), h)))
}
