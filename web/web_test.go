package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func serve(t *testing.T, h echo.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/*", h)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestEmbeddedIndex(t *testing.T) {
	rec := serve(t, Handler(FS()), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Horse Racing DB")
}

func TestSPAFallbackAndAssets(t *testing.T) {
	root := fstest.MapFS{
		"index.html":          {Data: []byte("<html>shell</html>")},
		"assets/js/app.js":    {Data: []byte("console.log('ui')")},
		"assets/css/site.css": {Data: []byte("body{}")},
	}
	h := Handler(root)

	rec := serve(t, h, "/admin/races")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>shell</html>", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")

	rec = serve(t, h, "/assets/js/app.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log('ui')", rec.Body.String())

	rec = serve(t, h, "/assets/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMissingIndex(t *testing.T) {
	rec := serve(t, Handler(fstest.MapFS{}), "/anything")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
