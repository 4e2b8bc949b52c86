package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/akiliki/arruti-app-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusBody struct {
	Status    production.Status     `json:"status" binding:"required,order_status"`
	Quantity  int                   `json:"quantity" binding:"required,min=1"`
	TimeSlots []production.TimeSlot `json:"timeSlots" binding:"omitempty,dive,time_slot"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req statusBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func postJSON(router *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSetupValidator_CustomTags(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{"valid", `{"status":"InProgress","quantity":2,"timeSlots":["morning"]}`, http.StatusOK, ""},
		{"unknown status", `{"status":"Burnt","quantity":2}`, http.StatusBadRequest, "status"},
		{"alias is not canonical", `{"status":"horno","quantity":2}`, http.StatusBadRequest, "status"},
		{"zero quantity", `{"status":"Done","quantity":0}`, http.StatusBadRequest, "quantity"},
		{"bad slot", `{"status":"Done","quantity":1,"timeSlots":["night"]}`, http.StatusBadRequest, "timeSlots[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := postJSON(router, tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantField == "" {
				assert.True(t, resp.Success)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Details)
			assert.Equal(t, tt.wantField, resp.Error.Details[0].Field)
		})
	}
}

func TestHandleValidationError_InvalidJSON(t *testing.T) {
	router := newValidationRouter()

	w, resp := postJSON(router, `{"status":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
}
