package server

import (
	"net/http"

	"github.com/ternarybob/scriba/internal/handlers"
)

// setupRoutes builds the route table from the app's handlers
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	apiHandler := handlers.NewAPIHandler(s.app.JobService)
	jobHandler := handlers.NewJobHandler(s.app.JobService, s.app.Logger)
	statusHandler := handlers.NewStatusHandler(s.app.Browser, s.app.JobService, s.app.Logger)

	// Health and version
	mux.HandleFunc("/health", apiHandler.HealthHandler)
	mux.HandleFunc("/api/health", apiHandler.HealthHandler)
	mux.HandleFunc("/api/version", apiHandler.VersionHandler)

	// Job submission and polling
	mux.HandleFunc("/api/jobs/profile", jobHandler.SubmitProfileHandler)
	mux.HandleFunc("/api/jobs/credentials", jobHandler.SubmitCredentialsHandler)
	mux.HandleFunc("/api/jobs", jobHandler.JobsHandler)
	mux.HandleFunc("/api/jobs/", jobHandler.JobsHandler)

	// Session state
	mux.HandleFunc("/api/status", statusHandler.StatusHandler)
	mux.HandleFunc("/api/session/reset", statusHandler.ResetHandler)

	// Everything else is a JSON 404
	mux.HandleFunc("/", apiHandler.NotFoundHandler)

	return mux
}
