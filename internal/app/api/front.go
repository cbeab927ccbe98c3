package api

import (
	"embed"
	"net/http"
)

//go:embed all:static
var staticFS embed.FS

func index(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, staticFS, "static/index.html")
}
