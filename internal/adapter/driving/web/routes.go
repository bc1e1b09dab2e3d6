package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Web routes serve HTML at / and /app/* paths.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /app/document", h.UploadDocument)
	mux.HandleFunc("POST /app/document/clear", h.ClearDocument)
	mux.HandleFunc("POST /app/translate", h.Translate)
	mux.HandleFunc("GET /app/download", h.Download)
	mux.HandleFunc("POST /app/keys", h.SaveKey)
	mux.HandleFunc("POST /app/keys/delete", h.DeleteKey)
}
