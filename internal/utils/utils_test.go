package utils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type sampleInput struct {
	Name  string `json:"name" binding:"required"`
	Plan  string `json:"plan" binding:"omitempty,oneof=single bundle"`
	Count int    `json:"count"`
}

func bind(body string) (*httptest.ResponseRecorder, bool) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var in sampleInput
	return w, BindAndValidate(c, &in)
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		ok        bool
		wantField string
	}{
		{"valid", `{"name":"a","plan":"single"}`, true, ""},
		{"required", `{}`, false, "name"},
		{"oneof", `{"name":"a","plan":"gold"}`, false, "plan"},
		{"type mismatch", `{"name":"a","count":"x"}`, false, "count"},
		{"malformed", `{"name":`, false, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := bind(tt.body)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				return
			}

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp struct {
				Status int                 `json:"status"`
				Data   ValidationErrorData `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, http.StatusBadRequest, resp.Status)
			require.NotEmpty(t, resp.Data.Errors)
			assert.Equal(t, tt.wantField, resp.Data.Errors[0].Field)
		})
	}
}

func TestLoggingTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write([]byte(strings.Repeat("x", maxLoggedBody+10) + string(body)))
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	client := NewHTTPClient(time.Second, zap.New(core))

	resp, err := client.Post(srv.URL, "text/plain", strings.NewReader("ping"))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(body), "ping"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "ping", entries[0].ContextMap()["body"])
	assert.Contains(t, entries[1].ContextMap()["body"], "...(truncated)")
	assert.Equal(t, int64(http.StatusOK), entries[1].ContextMap()["status"])
}
