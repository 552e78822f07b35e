// -----------------------------------------------------------------------
// Job Manager - Async export job lifecycle
// -----------------------------------------------------------------------

package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/interfaces"
	"github.com/ternarybob/scriba/internal/models"
)

// jobTimeout bounds one job end to end. Authentication alone can take
// minutes when a verification challenge appears, so this is generous.
const jobTimeout = 15 * time.Minute

// Manager tracks export jobs and drives each through its phases in a
// dedicated goroutine. Job records live in memory for the process lifetime;
// only the owning goroutine mutates a record after submission, so readers
// always receive clones.
type Manager struct {
	config         *common.Config
	browser        interfaces.BrowserManager
	auth           interfaces.Authenticator
	botStrategy    interfaces.Extractor
	callerStrategy interfaces.Extractor
	mailer         interfaces.Mailer
	logger         arbor.ILogger
	validator      *submissionValidator

	mu    sync.RWMutex
	jobs  map[string]*models.Job
	order []string
	// tasks holds the cancel handle for each in-flight run. There is no
	// caller-facing cancellation; handles exist so shutdown or a future
	// admin surface can stop runs.
	tasks map[string]context.CancelFunc
}

// NewManager creates the job manager with its collaborating services.
func NewManager(
	config *common.Config,
	browser interfaces.BrowserManager,
	auth interfaces.Authenticator,
	botStrategy interfaces.Extractor,
	callerStrategy interfaces.Extractor,
	mailer interfaces.Mailer,
	logger arbor.ILogger,
) (*Manager, error) {
	validator, err := newSubmissionValidator(config.Target.ProfilePathPattern)
	if err != nil {
		return nil, err
	}

	return &Manager{
		config:         config,
		browser:        browser,
		auth:           auth,
		botStrategy:    botStrategy,
		callerStrategy: callerStrategy,
		mailer:         mailer,
		logger:         logger,
		validator:      validator,
		jobs:           make(map[string]*models.Job),
		tasks:          make(map[string]context.CancelFunc),
	}, nil
}

// SubmitBotURL queues an export of the given profile URL using the shared
// bot identity. Validation is synchronous; execution is not.
func (m *Manager) SubmitBotURL(profileURL, email string) (*models.Job, error) {
	if err := m.validator.validateBotURL(profileURL, email); err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:         common.NewJobID(),
		Kind:       models.JobKindBotURL,
		ProfileURL: profileURL,
		Email:      email,
		Status:     models.JobStatusQueued,
		CreatedAt:  time.Now(),
	}

	m.register(job)

	m.logger.Info().
		Str("job_id", job.ID).
		Str("profile_url", profileURL).
		Msg("Bot URL export job queued")

	common.SafeGo(m.logger, "job-"+job.ID, func() {
		m.run(job)
	})

	return job.Clone(), nil
}

// SubmitCredentials queues an export of the caller's own profile using
// their credentials in an isolated disposable session.
func (m *Manager) SubmitCredentials(username, password, email string) (*models.Job, error) {
	if err := m.validator.validateCredentials(username, password, email); err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:        common.NewJobID(),
		Kind:      models.JobKindUserCredentials,
		Username:  username,
		Password:  password,
		Email:     email,
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now(),
	}

	m.register(job)

	m.logger.Info().
		Str("job_id", job.ID).
		Msg("Credential export job queued")

	common.SafeGo(m.logger, "job-"+job.ID, func() {
		m.run(job)
	})

	return job.Clone(), nil
}

// GetStatus returns a snapshot of the job record.
func (m *Manager) GetStatus(id string) (*models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, models.ErrJobNotFound
	}
	return job.Clone(), nil
}

// List returns snapshots of all job records, newest first.
func (m *Manager) List() []*models.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*models.Job, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		result = append(result, m.jobs[m.order[i]].Clone())
	}
	return result
}

// ActiveCount reports jobs not yet in a terminal state.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, job := range m.jobs {
		if !job.Status.IsTerminal() {
			count++
		}
	}
	return count
}

func (m *Manager) register(job *models.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
}

// setStatus advances a job's phase under the forward-only transition rule.
// An attempt to move backwards or out of a terminal state is a programming
// error and is logged rather than applied.
func (m *Manager) setStatus(job *models.Job, next models.JobStatus, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !job.Status.CanTransitionTo(next) {
		m.logger.Warn().
			Str("job_id", job.ID).
			Str("from", string(job.Status)).
			Str("to", string(next)).
			Msg("Rejected job status transition")
		return
	}

	job.Status = next
	job.Message = message
	if next.IsTerminal() {
		job.CompletedAt = time.Now()
	}
}

// run executes one job end to end. It is the only goroutine that mutates
// the record after registration.
func (m *Manager) run(job *models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	m.mu.Lock()
	m.tasks[job.ID] = cancel
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.tasks, job.ID)
		m.mu.Unlock()
	}()

	artifact, err := m.execute(ctx, job)
	if err != nil {
		m.fail(job, err)
		return
	}

	m.setStatus(job, models.JobStatusCompleted, "")

	m.logger.Info().
		Str("job_id", job.ID).
		Str("email", job.Email).
		Int("artifact_bytes", len(artifact.Data)).
		Msg("Export job completed")
}

func (m *Manager) execute(ctx context.Context, job *models.Job) (*models.Artifact, error) {
	m.setStatus(job, models.JobStatusAuthenticating, "")

	session, creds, extractor, err := m.prepare(ctx, job)
	if err != nil {
		return nil, err
	}
	defer m.browser.Release(session)

	sharedIdentity := job.Kind == models.JobKindBotURL
	if err := m.auth.Authenticate(ctx, session, creds, sharedIdentity); err != nil {
		return nil, err
	}

	m.setStatus(job, models.JobStatusExtracting, "")

	artifact, err := extractor.Extract(ctx, session, job.ProfileURL)
	if err != nil {
		return nil, err
	}

	m.setStatus(job, models.JobStatusDelivering, "")

	if err := m.mailer.SendArtifact(ctx, job.Email, m.deliveryURL(job), artifact); err != nil {
		return nil, err
	}

	return artifact, nil
}

// prepare picks the session kind, credentials and extraction strategy for
// the job's kind.
func (m *Manager) prepare(ctx context.Context, job *models.Job) (interfaces.BrowserSession, models.Credentials, interfaces.Extractor, error) {
	if job.Kind == models.JobKindUserCredentials {
		session, err := m.browser.AcquireDisposable(ctx)
		if err != nil {
			return nil, models.Credentials{}, nil, err
		}
		creds := models.Credentials{Username: job.Username, Password: job.Password}
		return session, creds, m.callerStrategy, nil
	}

	session, err := m.browser.AcquireShared(ctx)
	if err != nil {
		return nil, models.Credentials{}, nil, err
	}
	creds := models.Credentials{
		Username: m.config.Bot.Username,
		Password: m.config.Bot.Password,
	}
	return session, creds, m.botStrategy, nil
}

// deliveryURL is the profile link embedded in the success email. Credential
// jobs have no submitted URL; the caller's own profile page stands in.
func (m *Manager) deliveryURL(job *models.Job) string {
	if job.ProfileURL != "" {
		return job.ProfileURL
	}
	return m.config.Target.BaseURL + m.config.Target.OwnProfilePath
}

// fail drives the job to its failed terminal state. A missing export entry
// point on a credential job flags the record for manual resubmission with
// an explicit URL; no automatic strategy switch happens. The failure notice
// email is best-effort and never changes the outcome.
func (m *Manager) fail(job *models.Job, cause error) {
	message := failureMessage(cause)

	m.mu.Lock()
	if models.IsEntryPointNotFound(cause) && job.Kind == models.JobKindUserCredentials {
		job.NeedsManualInput = true
	}
	m.mu.Unlock()

	m.setStatus(job, models.JobStatusFailed, message)

	m.logger.Warn().
		Str("job_id", job.ID).
		Str("reason", message).
		Err(cause).
		Msg("Export job failed")

	if m.mailer.IsConfigured() {
		// The job context may already be expired when the failure is a
		// timeout; the notice gets its own budget.
		noticeCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := m.mailer.SendFailureNotice(noticeCtx, job.Email, message); err != nil {
			m.logger.Warn().
				Str("job_id", job.ID).
				Err(err).
				Msg("Failure notice could not be delivered")
		}
	}
}

// failureMessage maps internal errors to the human-readable text stored on
// the record and mailed to the caller.
func failureMessage(err error) string {
	var entryPoint *models.EntryPointNotFoundError
	var delivery *models.DeliveryError

	switch {
	case errors.Is(err, models.ErrCredentialsRejected):
		return "The site rejected the supplied credentials."
	case errors.Is(err, models.ErrAuthTimeout):
		return "Login did not complete in time. A verification challenge may be pending."
	case errors.Is(err, models.ErrLoginFieldNotFound):
		return "The login page did not load as expected."
	case errors.Is(err, models.ErrExportOptionNotFound):
		return "The export option could not be found on the profile page."
	case errors.Is(err, models.ErrDownloadTimeout):
		return "The exported file did not arrive in time."
	case errors.As(err, &entryPoint):
		return "The profile page layout was not recognized. Please resubmit with your public profile URL."
	case errors.As(err, &delivery):
		return "The export succeeded but the email could not be delivered."
	case errors.Is(err, context.DeadlineExceeded):
		return "The export did not complete in time."
	default:
		return "The export failed: " + err.Error()
	}
}
