package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-app-api/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCORS_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()), CORS(config.Default().App))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCORS_Credentials(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, tc := range []struct {
		origin string
		want   string
	}{
		{origin: "http://localhost:3000", want: "true"},
		{origin: "*", want: ""},
	} {
		app := config.Default().App
		app.CORSOrigin = tc.origin

		r := gin.New()
		r.Use(CORS(app))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, tc.origin, w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, tc.want, w.Header().Get("Access-Control-Allow-Credentials"), tc.origin)
	}
}
