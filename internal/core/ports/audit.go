package ports

import (
	"context"
	"time"
)

// Audit actions emitted by the credential service.
const (
	AuditRegister     = "register"
	AuditLoginSuccess = "login_success"
	AuditLoginFailure = "login_failure"
	AuditRefresh      = "token_refresh"
	AuditLogout       = "logout"
)

// AuditEvent records a single credential-lifecycle action.
// IdentityID may be empty when the action failed before an identity was
// resolved (e.g. a login attempt for an unknown email).
type AuditEvent struct {
	Action     string
	IdentityID string
	Email      string
	At         time.Time
}

// AuditRecorder accepts events asynchronously; Record must never block
// the request path.
type AuditRecorder interface {
	Record(event AuditEvent)
}

// LoginThrottle bounds failed login attempts per email.
type LoginThrottle interface {
	// Allow returns domain.ErrTooManyAttempts once the failure budget
	// for the email is exhausted.
	Allow(ctx context.Context, email string) error
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}
