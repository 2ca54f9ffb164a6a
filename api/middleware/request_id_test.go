package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centrio/centrio-backend/pkg/logger"
)

func TestRequestIDEchoesSafeHeader(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "api-test", Output: &buf})
	handler := RequestID(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logg.Info(r.Context(), "media.list")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/media", nil)
	req.Header.Set(requestIDHeader, "upload-batch_7.retry:2")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, "upload-batch_7.retry:2", resp.Header().Get(requestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"upload-batch_7.retry:2"`)
}

func TestRequestIDReplacesUnsafeOrMissingHeader(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for name, incoming := range map[string]string{
		"missing":   "",
		"too long":  strings.Repeat("a", maxRequestIDBytes+1),
		"log forge": "abc\n{\"level\":\"error\"}",
		"spaces":    "abc def",
		"quotes":    `abc"def`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/media", nil)
			if incoming != "" {
				req.Header[requestIDHeader] = []string{incoming}
			}
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)

			got := resp.Header().Get(requestIDHeader)
			assert.NotEqual(t, incoming, got)
			_, err := uuid.Parse(got)
			require.NoError(t, err)
		})
	}
}

func TestValidRequestIDBounds(t *testing.T) {
	assert.True(t, validRequestID(strings.Repeat("a", maxRequestIDBytes)))
	assert.False(t, validRequestID(strings.Repeat("a", maxRequestIDBytes+1)))
	assert.False(t, validRequestID("é"))
}
