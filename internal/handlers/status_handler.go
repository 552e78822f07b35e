// -----------------------------------------------------------------------
// Status Handler - Shared session and service state API
// -----------------------------------------------------------------------

package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriba/internal/interfaces"
)

// StatusHandler reports shared session state and manages session resets
type StatusHandler struct {
	browser    interfaces.BrowserManager
	jobService interfaces.JobService
	logger     arbor.ILogger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(browser interfaces.BrowserManager, jobService interfaces.JobService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		browser:    browser,
		jobService: jobService,
		logger:     logger,
	}
}

// StatusHandler reports whether the shared bot session is live,
// plus job activity counters
// GET /api/status
func (h *StatusHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"shared_session_alive": h.browser.SharedAlive(),
		"disposable_sessions":  h.browser.DisposableCount(),
		"active_jobs":          h.jobService.ActiveCount(),
		"timestamp":            time.Now().Format(time.RFC3339),
	})
}

// ResetHandler tears down the shared session and its persisted cookies.
// The next bot-identity job starts from a clean login.
// POST /api/session/reset
func (h *StatusHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.browser.Reset(); err != nil {
		h.logger.Error().Err(err).Msg("Session reset failed")
		WriteError(w, http.StatusInternalServerError, "Failed to reset session")
		return
	}

	h.logger.Info().Msg("Shared session reset via API")
	WriteSuccess(w, "Shared session reset")
}
