package models

// Cookie is a persisted authentication cookie for the shared bot identity.
// The field set mirrors what the browser's network domain reports so a
// snapshot can be re-injected on the next launch.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // seconds since epoch, -1 for session cookies
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"http_only"`
	SameSite string  `json:"same_site,omitempty"`
}

// SessionKind distinguishes the two browser ownership models.
type SessionKind string

const (
	// SessionKindShared is the singleton bot-identity session, kept warm
	// across jobs and only torn down by an explicit reset.
	SessionKindShared SessionKind = "shared"
	// SessionKindDisposable is a fresh isolated session launched for a
	// single caller-credentials job and always closed after use.
	SessionKindDisposable SessionKind = "disposable"
)
