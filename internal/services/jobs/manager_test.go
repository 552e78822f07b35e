package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/interfaces"
	"github.com/ternarybob/scriba/internal/models"
)

type stubSession struct {
	kind models.SessionKind
}

func (s *stubSession) Context() context.Context { return context.Background() }
func (s *stubSession) DownloadDir() string      { return "" }
func (s *stubSession) Kind() models.SessionKind { return s.kind }
func (s *stubSession) Alive() bool              { return true }

type stubBrowser struct {
	mu         sync.Mutex
	disposable int
	released   int
}

func (b *stubBrowser) AcquireShared(ctx context.Context) (interfaces.BrowserSession, error) {
	return &stubSession{kind: models.SessionKindShared}, nil
}

func (b *stubBrowser) AcquireDisposable(ctx context.Context) (interfaces.BrowserSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disposable++
	return &stubSession{kind: models.SessionKindDisposable}, nil
}

func (b *stubBrowser) Release(session interfaces.BrowserSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released++
}

func (b *stubBrowser) Reset() error         { return nil }
func (b *stubBrowser) DisposableCount() int { return 0 }
func (b *stubBrowser) SharedAlive() bool    { return true }
func (b *stubBrowser) Close() error         { return nil }

func (b *stubBrowser) releaseCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

type stubAuth struct {
	err  error
	gate chan struct{}
}

func (a *stubAuth) Authenticate(ctx context.Context, session interfaces.BrowserSession, creds models.Credentials, sharedIdentity bool) error {
	if a.gate != nil {
		<-a.gate
	}
	return a.err
}

func (a *stubAuth) CheckAuthenticated(ctx context.Context, session interfaces.BrowserSession) (bool, error) {
	return true, nil
}

type stubExtractor struct {
	artifact *models.Artifact
	err      error
	calls    int32
}

func (e *stubExtractor) Extract(ctx context.Context, session interfaces.BrowserSession, target string) (*models.Artifact, error) {
	atomic.AddInt32(&e.calls, 1)
	return e.artifact, e.err
}

func (e *stubExtractor) callCount() int32 { return atomic.LoadInt32(&e.calls) }

type stubMailer struct {
	mu          sync.Mutex
	artifactErr error
	configured  bool
	delivered   []string
	notices     []string
}

func (m *stubMailer) SendArtifact(ctx context.Context, to, profileURL string, artifact *models.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.artifactErr != nil {
		return m.artifactErr
	}
	m.delivered = append(m.delivered, to)
	return nil
}

func (m *stubMailer) SendFailureNotice(ctx context.Context, to, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, reason)
	return nil
}

func (m *stubMailer) IsConfigured() bool { return m.configured }

func (m *stubMailer) deliveredTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.delivered...)
}

func (m *stubMailer) noticeReasons() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.notices...)
}

func testConfig() *common.Config {
	return &common.Config{
		Target: common.TargetConfig{
			BaseURL:            "https://www.linkedin.com",
			OwnProfilePath:     "/in/me/",
			ProfilePathPattern: `^https://(www\.)?linkedin\.com/in/[A-Za-z0-9\-_%]+/?$`,
		},
		Bot: common.BotConfig{
			Username: "bot@example.com",
			Password: "secret",
		},
	}
}

type testFixture struct {
	manager *Manager
	browser *stubBrowser
	auth    *stubAuth
	bot     *stubExtractor
	caller  *stubExtractor
	mailer  *stubMailer
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		browser: &stubBrowser{},
		auth:    &stubAuth{},
		bot:     &stubExtractor{artifact: &models.Artifact{Filename: "profile.pdf", Data: []byte("pdf")}},
		caller:  &stubExtractor{artifact: &models.Artifact{Filename: "profile.pdf", Data: []byte("pdf")}},
		mailer:  &stubMailer{configured: true},
	}

	manager, err := NewManager(testConfig(), f.browser, f.auth, f.bot, f.caller, f.mailer, arbor.NewLogger())
	require.NoError(t, err)
	f.manager = manager
	return f
}

func waitForTerminal(t *testing.T, m *Manager, id string) *models.Job {
	t.Helper()

	var job *models.Job
	require.Eventually(t, func() bool {
		j, err := m.GetStatus(id)
		if err != nil {
			return false
		}
		job = j
		return j.Status.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond, "job never reached a terminal state")
	return job
}

func TestSubmitBotURL_ReturnsBeforeExecutionFinishes(t *testing.T) {
	f := newFixture(t)
	f.auth.gate = make(chan struct{})

	start := time.Now()
	job, err := f.manager.SubmitBotURL("https://www.linkedin.com/in/janedoe", "jane@example.com")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.JobKindBotURL, job.Kind)

	status, err := f.manager.GetStatus(job.ID)
	require.NoError(t, err)
	assert.False(t, status.Status.IsTerminal())

	close(f.auth.gate)
	final := waitForTerminal(t, f.manager, job.ID)
	assert.Equal(t, models.JobStatusCompleted, final.Status)
}

func TestSubmitBotURL_DistinctIDs(t *testing.T) {
	f := newFixture(t)

	first, err := f.manager.SubmitBotURL("https://www.linkedin.com/in/janedoe", "jane@example.com")
	require.NoError(t, err)
	second, err := f.manager.SubmitBotURL("https://www.linkedin.com/in/janedoe", "jane@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestSubmitBotURL_Validation(t *testing.T) {
	tests := []struct {
		name       string
		profileURL string
		email      string
	}{
		{"empty profile URL", "", "jane@example.com"},
		{"non-profile URL", "https://www.linkedin.com/feed/", "jane@example.com"},
		{"wrong host", "https://example.com/in/janedoe", "jane@example.com"},
		{"empty email", "https://www.linkedin.com/in/janedoe", ""},
		{"malformed email", "https://www.linkedin.com/in/janedoe", "not-an-email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.manager.SubmitBotURL(tt.profileURL, tt.email)
			require.Error(t, err)
			assert.True(t, models.IsValidationError(err), "expected validation error, got %v", err)
			assert.Equal(t, 0, f.manager.ActiveCount())
		})
	}
}

func TestSubmitCredentials_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		email    string
	}{
		{"empty username", "", "pw", "jane@example.com"},
		{"non-email username", "janedoe", "pw", "jane@example.com"},
		{"empty password", "jane@site.com", "", "jane@example.com"},
		{"empty delivery email", "jane@site.com", "pw", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.manager.SubmitCredentials(tt.username, tt.password, tt.email)
			require.Error(t, err)
			assert.True(t, models.IsValidationError(err))
		})
	}
}

func TestBotJob_CompletesAndDelivers(t *testing.T) {
	f := newFixture(t)

	job, err := f.manager.SubmitBotURL("https://www.linkedin.com/in/janedoe", "jane@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, f.manager, job.ID)
	assert.Equal(t, models.JobStatusCompleted, final.Status)
	assert.False(t, final.CompletedAt.IsZero())
	assert.Equal(t, []string{"jane@example.com"}, f.mailer.deliveredTo())
	assert.EqualValues(t, 1, f.bot.callCount())
	assert.EqualValues(t, 0, f.caller.callCount())
}

func TestCredentialJob_UsesDisposableSessionAndReleasesIt(t *testing.T) {
	f := newFixture(t)

	job, err := f.manager.SubmitCredentials("jane@site.com", "pw", "jane@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, f.manager, job.ID)
	assert.Equal(t, models.JobStatusCompleted, final.Status)
	assert.EqualValues(t, 1, f.caller.callCount())
	assert.EqualValues(t, 0, f.bot.callCount())
	assert.Equal(t, 1, f.browser.releaseCount())
}

func TestJob_FailsOnRejectedCredentials(t *testing.T) {
	f := newFixture(t)
	f.auth.err = models.ErrCredentialsRejected

	job, err := f.manager.SubmitCredentials("jane@site.com", "wrong", "jane@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, f.manager, job.ID)
	assert.Equal(t, models.JobStatusFailed, final.Status)
	assert.Contains(t, final.Message, "credentials")
	assert.False(t, final.NeedsManualInput)

	require.Eventually(t, func() bool {
		return len(f.mailer.noticeReasons()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCredentialJob_MissingEntryPointFlagsManualInput(t *testing.T) {
	f := newFixture(t)
	f.caller.artifact = nil
	f.caller.err = &models.EntryPointNotFoundError{
		EntryPoint: "Resources",
		Candidates: []string{"Open to", "Add profile section"},
	}

	job, err := f.manager.SubmitCredentials("jane@site.com", "pw", "jane@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, f.manager, job.ID)
	assert.Equal(t, models.JobStatusFailed, final.Status)
	assert.True(t, final.NeedsManualInput)
	// No automatic strategy switch: the caller must resubmit with a URL.
	assert.EqualValues(t, 0, f.bot.callCount())
}

func TestBotJob_MissingEntryPointDoesNotFlagManualInput(t *testing.T) {
	f := newFixture(t)
	f.bot.artifact = nil
	f.bot.err = &models.EntryPointNotFoundError{EntryPoint: "More"}

	job, err := f.manager.SubmitBotURL("https://www.linkedin.com/in/janedoe", "jane@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, f.manager, job.ID)
	assert.Equal(t, models.JobStatusFailed, final.Status)
	assert.False(t, final.NeedsManualInput)
}

func TestJob_DeliveryFailureIsTerminalFailure(t *testing.T) {
	f := newFixture(t)
	f.mailer.artifactErr = &models.DeliveryError{To: "jane@example.com"}

	job, err := f.manager.SubmitBotURL("https://www.linkedin.com/in/janedoe", "jane@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, f.manager, job.ID)
	assert.Equal(t, models.JobStatusFailed, final.Status)
	assert.Contains(t, final.Message, "email")
}

func TestGetStatus_UnknownJob(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.GetStatus("job_0_missing")
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestGetStatus_ReturnsSnapshot(t *testing.T) {
	f := newFixture(t)
	f.auth.gate = make(chan struct{})
	defer close(f.auth.gate)

	job, err := f.manager.SubmitBotURL("https://www.linkedin.com/in/janedoe", "jane@example.com")
	require.NoError(t, err)

	snapshot, err := f.manager.GetStatus(job.ID)
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the tracked record.
	snapshot.Status = models.JobStatusFailed
	again, err := f.manager.GetStatus(job.ID)
	require.NoError(t, err)
	assert.NotEqual(t, models.JobStatusFailed, again.Status)
}

func TestList_NewestFirst(t *testing.T) {
	f := newFixture(t)
	f.auth.gate = make(chan struct{})
	defer close(f.auth.gate)

	first, err := f.manager.SubmitBotURL("https://www.linkedin.com/in/janedoe", "jane@example.com")
	require.NoError(t, err)
	second, err := f.manager.SubmitBotURL("https://www.linkedin.com/in/johndoe", "john@example.com")
	require.NoError(t, err)

	jobs := f.manager.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
	assert.Equal(t, 2, f.manager.ActiveCount())
}

func TestCredentialJob_NeverEchoesSecrets(t *testing.T) {
	f := newFixture(t)
	f.auth.gate = make(chan struct{})
	defer close(f.auth.gate)

	job, err := f.manager.SubmitCredentials("jane@site.com", "pw", "jane@example.com")
	require.NoError(t, err)

	// The returned record carries the fields but they are excluded from
	// JSON serialization by the model tags; List snapshots behave the same.
	snapshot, err := f.manager.GetStatus(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobKindUserCredentials, snapshot.Kind)
}
