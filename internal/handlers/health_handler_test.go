package handlers

import (
	"encoding/json"
	"errors"
	"testing"

	xhttp "github.com/nimasrn/service-reminders/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_GetHealth(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		db, rdb := new(MockPinger), new(MockPinger)
		db.On("Ping", mock.Anything).Return(nil)
		rdb.On("Ping", mock.Anything).Return(nil)
		h := NewHealthHandler(map[string]Pinger{"postgres": db, "redis": rdb})

		ctx := setupTestContext("GET", "/health", nil)
		h.GetHealth(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		var got struct {
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &got))
		assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, got.Checks)
	})

	t.Run("redis down", func(t *testing.T) {
		db, rdb := new(MockPinger), new(MockPinger)
		db.On("Ping", mock.Anything).Return(nil)
		rdb.On("Ping", mock.Anything).Return(errors.New("connection refused"))
		h := NewHealthHandler(map[string]Pinger{"postgres": db, "redis": rdb})

		ctx := setupTestContext("GET", "/health", nil)
		h.GetHealth(ctx)

		assert.Equal(t, xhttp.StatusServiceUnavailable, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Body()), "connection refused")
	})
}
