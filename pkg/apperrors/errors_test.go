package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusAndCode(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", NewNotFoundError("document", "abc"), http.StatusNotFound, "NOT_FOUND"},
		{"validation", NewValidationError("steps", "empty"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", NewConflictError("workflow", "exists"), http.StatusConflict, "CONFLICT"},
		{"invalid state", NewInvalidStateError("step", "completed", "finished"), http.StatusUnprocessableEntity, "INVALID_STATE_TRANSITION"},
		{"unauthorized", NewUnauthorizedError("bad token"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"wrapped", fmt.Errorf("creating workflow: %w", NewConflictError("workflow", "exists")), http.StatusConflict, "CONFLICT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, Status(tc.err))
			assert.Equal(t, tc.code, ErrorCode(tc.err))
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("user", "")))
	assert.False(t, IsNotFound(NewConflictError("user", "dup")))
	assert.True(t, IsConflict(fmt.Errorf("wrap: %w", NewConflictError("user", "dup"))))
	assert.True(t, IsValidation(NewValidationError("f", "m")))
	assert.True(t, IsInvalidState(NewInvalidStateError("r", "", "m")))
}

func TestRespondMasksInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Respond(c, errors.New("pq: duplicate key value violates unique constraint"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error","code":"INTERNAL_ERROR"}`, w.Body.String())
}

func TestRespondKeepsApplicationMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Respond(c, NewNotFoundError("workflow", "42"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "workflow with ID '42' not found")
}
