package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/construct/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending completed failed cancelled"`
}

func setupValidationRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	engine := gin.New()
	engine.POST("/status", func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return engine
}

func TestHandleValidationError(t *testing.T) {
	t.Run("reports per-field details with json names", func(t *testing.T) {
		engine := setupValidationRouter()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/status", strings.NewReader(`{"status":"bogus"}`))
		req.Header.Set("Content-Type", "application/json")

		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "status", resp.Error.Details[0].Field)
		assert.Contains(t, resp.Error.Details[0].Message, "Must be one of")
	})

	t.Run("missing required field", func(t *testing.T) {
		engine := setupValidationRouter()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/status", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")

		engine.ServeHTTP(w, req)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "This field is required", resp.Error.Details[0].Message)
	})

	t.Run("malformed JSON falls back to bad request", func(t *testing.T) {
		engine := setupValidationRouter()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/status", strings.NewReader(`{not json`))
		req.Header.Set("Content-Type", "application/json")

		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
		assert.Empty(t, resp.Error.Details)
	})

	t.Run("valid payload passes through", func(t *testing.T) {
		engine := setupValidationRouter()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/status", strings.NewReader(`{"status":"completed"}`))
		req.Header.Set("Content-Type", "application/json")

		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
