package handler

import (
	"net/http"

	"pdf-suite-server/internal/domain"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	toolHandler *ToolHandler,
	sessionHandler *SessionHandler,
	convertHandler *ConvertHandler,
	pageHandler *PageHandler,
	allowedOrigins []string,
	middleware ...mux.MiddlewareFunc,
) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware...)

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/convert/pdf-to-docx", convertHandler.PDFToDocx).Methods(http.MethodPost)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Tools
	tools := api.PathPrefix("/tools").Subrouter()
	tools.HandleFunc("/info", toolHandler.Info).Methods(http.MethodPost)
	tools.HandleFunc("/merge", toolHandler.Merge).Methods(http.MethodPost)
	tools.HandleFunc("/split", toolHandler.Split).Methods(http.MethodPost)
	tools.HandleFunc("/extract", toolHandler.Extract).Methods(http.MethodPost)
	tools.HandleFunc("/delete", toolHandler.Delete).Methods(http.MethodPost)
	tools.HandleFunc("/insert", toolHandler.Insert).Methods(http.MethodPost)
	tools.HandleFunc("/highlight", toolHandler.Highlight).Methods(http.MethodPost)
	tools.HandleFunc("/sign", toolHandler.Sign).Methods(http.MethodPost)
	tools.HandleFunc("/text", toolHandler.FillText).Methods(http.MethodPost)
	tools.HandleFunc("/watermark", toolHandler.Watermark).Methods(http.MethodPost)
	tools.HandleFunc("/compress", toolHandler.Compress).Methods(http.MethodPost)
	tools.HandleFunc("/images-to-pdf", toolHandler.ImagesToPDF).Methods(http.MethodPost)
	tools.HandleFunc("/text-to-pdf", toolHandler.TextToPDF).Methods(http.MethodPost)
	tools.HandleFunc("/pdf-to-images", toolHandler.PDFToImages).Methods(http.MethodPost)
	tools.HandleFunc("/search", toolHandler.Search).Methods(http.MethodPost)
	tools.HandleFunc("/compare", toolHandler.Compare).Methods(http.MethodPost)
	tools.HandleFunc("/metadata", toolHandler.Metadata).Methods(http.MethodPost)
	tools.HandleFunc("/flatten", toolHandler.Flatten).Methods(http.MethodPost)
	tools.HandleFunc("/batch", toolHandler.Batch).Methods(http.MethodPost)

	// Page segmenter
	api.HandleFunc("/pages/ranges", pageHandler.Ranges).Methods(http.MethodPost)
	api.HandleFunc("/pages/parse", pageHandler.Parse).Methods(http.MethodPost)

	// Viewer sessions
	api.HandleFunc("/sessions", sessionHandler.Create).Methods(http.MethodPost)
	sessions := api.PathPrefix("/sessions/{id}").Subrouter()
	sessions.HandleFunc("", sessionHandler.Get).Methods(http.MethodGet)
	sessions.HandleFunc("", sessionHandler.Delete).Methods(http.MethodDelete)
	sessions.HandleFunc("/pages/{page:[0-9]+}/render", sessionHandler.Render).Methods(http.MethodGet)
	sessions.HandleFunc("/pages/{page:[0-9]+}/thumbnail", sessionHandler.Thumbnail).Methods(http.MethodGet)
	sessions.HandleFunc("/render", sessionHandler.CancelRender).Methods(http.MethodDelete)
	sessions.HandleFunc("/cuts", sessionHandler.Cuts).Methods(http.MethodGet)
	sessions.HandleFunc("/cuts", sessionHandler.ClearCuts).Methods(http.MethodDelete)
	sessions.HandleFunc("/cuts/all", sessionHandler.SplitEveryPage).Methods(http.MethodPost)
	sessions.HandleFunc("/cuts/{page:[0-9]+}", sessionHandler.ToggleCut).Methods(http.MethodPost)
	sessions.HandleFunc("/split", sessionHandler.Split).Methods(http.MethodPost)
	sessions.HandleFunc("/map", sessionHandler.Map).Methods(http.MethodPost)

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		ExposedHeaders:   append(append([]string{"Content-Disposition"}, frameHeaders...), domain.MetaKeys...),
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
