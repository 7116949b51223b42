package models

// CredentialKind discriminates the credential payload variant.
type CredentialKind string

const (
	CredentialKindEmailPassword CredentialKind = "email_password"
	CredentialKindCookieJar     CredentialKind = "cookie_jar"
)

// Cookie is a single browser cookie from a cookie-jar credential.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain,omitempty"`
	Path     string `json:"path,omitempty"`
	Expires  int64  `json:"expires,omitempty"` // Unix seconds, 0 = session cookie
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"http_only,omitempty"`
}

// CredentialPayload is a tagged union: the Kind field selects which of the
// remaining fields are meaningful. Never inspect by field presence.
type CredentialPayload struct {
	Kind     CredentialKind `json:"kind"`
	Email    string         `json:"email,omitempty"`
	Password string         `json:"password,omitempty"`
	Cookies  []Cookie       `json:"cookies,omitempty"`
}

// CredentialLease is a locally-held, backend-issued authorization to use one
// credential for one platform within one session. Lease state (available,
// in_use, cooldown, disabled) is owned by the backend; locally we only track
// that we hold it.
type CredentialLease struct {
	Platform     string            `json:"platform"`
	CredentialID string            `json:"credential_id"`
	Payload      CredentialPayload `json:"payload"`
}
