// -----------------------------------------------------------------------
// Job Handler - Export job submission and polling API
// -----------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriba/internal/interfaces"
	"github.com/ternarybob/scriba/internal/models"
)

// JobHandler handles export job API requests
type JobHandler struct {
	jobService interfaces.JobService
	logger     arbor.ILogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobService interfaces.JobService, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		logger:     logger,
	}
}

type profileJobRequest struct {
	ProfileURL string `json:"profile_url"`
	Email      string `json:"email"`
}

type credentialsJobRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// SubmitProfileHandler queues a bot-identity export of a submitted profile URL
// POST /api/jobs/profile
func (h *JobHandler) SubmitProfileHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req profileJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	job, err := h.jobService.SubmitBotURL(req.ProfileURL, req.Email)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// SubmitCredentialsHandler queues a caller-identity export using supplied
// credentials. The response reports the authenticating phase directly since
// that is the first thing the job does with the credentials.
// POST /api/jobs/credentials
func (h *JobHandler) SubmitCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req credentialsJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	job, err := h.jobService.SubmitCredentials(req.Username, req.Password, req.Email)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": models.JobStatusAuthenticating,
	})
}

// JobsHandler routes collection and item requests under /api/jobs
func (h *JobHandler) JobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/jobs"), "/")
	if id == "" {
		h.listJobs(w)
		return
	}
	h.jobStatus(w, id)
}

func (h *JobHandler) listJobs(w http.ResponseWriter) {
	jobs := h.jobService.List()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

func (h *JobHandler) jobStatus(w http.ResponseWriter, id string) {
	job, err := h.jobService.GetStatus(id)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to load job")
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

func (h *JobHandler) writeSubmitError(w http.ResponseWriter, err error) {
	if models.IsValidationError(err) {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Error().Err(err).Msg("Job submission failed")
	WriteError(w, http.StatusInternalServerError, "Failed to submit job")
}
