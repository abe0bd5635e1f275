package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/leaseguard/leaseguard-api/internal/handlers"
	"github.com/leaseguard/leaseguard-api/internal/middleware"
	"github.com/leaseguard/leaseguard-api/internal/services"
	"github.com/leaseguard/leaseguard-api/internal/utils"
)

func NewRouter(analysis services.AnalysisService, reports services.ReportService, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	docHandler := handlers.NewDocumentHandler(analysis, reports, logger)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Document endpoints
	api.HandleFunc("/documents/upload", docHandler.UploadDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/analyze", docHandler.AnalyzeDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/analysis", docHandler.GetAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/report", docHandler.GetReport).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", docHandler.GetDocument).Methods(http.MethodGet)

	return r
}
