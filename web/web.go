// Package web serves the embedded browser UI.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed all:public
var embeddedFiles embed.FS

// FS returns the UI files rooted at the public directory.
func FS() fs.FS {
	sub, err := fs.Sub(embeddedFiles, "public")
	if err != nil {
		panic(err)
	}
	return sub
}

// Handler serves files from root, falling back to index.html for any path
// without an extension so client-side routes resolve.
func Handler(root fs.FS) echo.HandlerFunc {
	fileServer := http.FileServer(http.FS(root))
	return func(c echo.Context) error {
		p := c.Request().URL.Path

		// If request is for a static file, serve it
		if strings.Contains(path.Base(p), ".") {
			fileServer.ServeHTTP(c.Response(), c.Request())
			return nil
		}
		// Otherwise, serve `index.html` for client-side routing (SPA fallback)
		indexFile, err := root.Open("index.html")
		if err != nil {
			return echo.ErrNotFound
		}
		defer indexFile.Close()

		return c.Stream(http.StatusOK, echo.MIMETextHTMLCharsetUTF8, indexFile)
	}
}
