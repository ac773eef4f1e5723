package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

func testHTTPConfig(t *testing.T, srv *httptest.Server) HTTPClientConfig {
	t.Helper()
	return NewHTTPClientConfig(srv.Client(), 0, zaptest.NewLogger(t), nil)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}
