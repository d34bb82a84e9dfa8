package api

import (
	"camtrap-pipeline/internal/api/handler"
	"camtrap-pipeline/pkg/router"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "camtrap-pipeline/docs" // swagger spec registration
)

// RegisterRoutes attaches the analysis API and the swagger UI.
func RegisterRoutes(r *router.Router) {
	r.POST("/api/v1/analyses", handler.CreateAnalysis)
	r.GET("/api/v1/analyses", handler.ListAnalyses)
	r.GET("/api/v1/analyses/{id}", handler.GetAnalysis)
	r.GET("/api/v1/analyses/{id}/errors", handler.GetAnalysisErrors)
	r.GET("/api/v1/analyses/{id}/results", handler.GetAnalysisResults)
	r.GET("/api/v1/analyses/{id}/logs", handler.GetAnalysisLogs)
	r.GET("/api/v1/analyses/{id}/progress", handler.GetAnalysisProgress)
	r.GET("/api/v1/analyses/{id}/metrics", handler.GetAnalysisMetrics)
	r.GET("/api/v1/analyses/{id}/files", handler.GetAnalysisFiles)
	r.DELETE("/api/v1/analyses/{id}", handler.DeleteAnalysis)
	r.GET("/api/v1/download/{id}/{file}", handler.DownloadFile)

	r.Handle("/swagger/", httpSwagger.WrapHandler)
}
