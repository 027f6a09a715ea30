package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"iesa-console/backend/internal/audit"
	auditdomain "iesa-console/backend/internal/audit/domain"
	identitydomain "iesa-console/backend/internal/identity/domain"
	memberdomain "iesa-console/backend/internal/member/domain"
	"iesa-console/backend/internal/security"
	sessiondomain "iesa-console/backend/internal/session/domain"
	"iesa-console/backend/internal/telemetry"
)

// MsgInvalidCredentials is the only failure message Login reports; it never says which part was wrong.
const MsgInvalidCredentials = "invalid credentials"

// ErrInvalidCredentials is returned by Authenticate-style helpers.
var ErrInvalidCredentials = errors.New(MsgInvalidCredentials)

// LoginResult is the outcome of Login.
type LoginResult struct {
	Success  bool
	Identity *identitydomain.Identity
	Message  string
}

// MemberDirectory is the slice of the membership store the auth service needs.
type MemberDirectory interface {
	Authenticate(name, code string) (*memberdomain.Member, bool)
	Get(id string) (*memberdomain.Member, bool)
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	Get(ctx context.Context) (*sessiondomain.Session, error)
	Save(ctx context.Context, s *sessiondomain.Session) error
	Clear(ctx context.Context) error
}

// AuthService implements access-code login, logout and session restore for the single console user.
type AuthService struct {
	mu       sync.Mutex
	current  *identitydomain.Identity
	members  MemberDirectory
	sessions SessionRepo
	tokens   *security.TokenProvider
	audit    audit.AuditLogger
	metrics  *telemetry.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies. auditLogger and metrics may be nil.
func NewAuthService(
	members MemberDirectory,
	sessions SessionRepo,
	tokens *security.TokenProvider,
	auditLogger audit.AuditLogger,
	metrics *telemetry.Metrics,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		members:  members,
		sessions: sessions,
		tokens:   tokens,
		audit:    auditLogger,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// Login matches name case-insensitively (surrounding spaces ignored) and code exactly. On success the
// identity becomes current and a signed session token is persisted. Failing to persist the session
// does not fail the login; the session just will not survive a restart.
func (s *AuthService) Login(ctx context.Context, name, code string) LoginResult {
	ctx, span := otel.Tracer("iesa-console/identity").Start(ctx, "identity.login")
	defer span.End()

	m, ok := s.authenticate(ctx, name, code)
	span.SetAttributes(attribute.Bool("login.success", ok))
	if !ok {
		return LoginResult{Success: false, Message: MsgInvalidCredentials}
	}

	id := identitydomain.FromMember(m)
	s.mu.Lock()
	s.current = id
	s.mu.Unlock()

	if err := s.persist(ctx, m); err != nil {
		s.log.Warn().Err(err).Str("member_id", m.ID).Msg("session not persisted")
	}
	s.logAudit(ctx, m.ID, m.Name, auditdomain.ActionLoginSuccess, string(m.Role))
	s.log.Info().Str("member_id", m.ID).Str("role", string(m.Role)).Msg("login")
	return LoginResult{Success: true, Identity: id}
}

// Verify checks name and code the way Login does but leaves the console session untouched. It serves
// one-off commands that act as a member without logging in.
func (s *AuthService) Verify(ctx context.Context, name, code string) (*identitydomain.Identity, error) {
	m, ok := s.authenticate(ctx, name, code)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return identitydomain.FromMember(m), nil
}

func (s *AuthService) authenticate(ctx context.Context, name, code string) (*memberdomain.Member, bool) {
	name = strings.TrimSpace(name)
	var m *memberdomain.Member
	ok := false
	if name != "" && code != "" {
		m, ok = s.members.Authenticate(name, code)
	}
	s.metrics.Login(ok)
	if !ok {
		s.logAudit(ctx, "", name, auditdomain.ActionLoginFailure, "")
		s.log.Info().Str("name", name).Msg("login failed")
	}
	return m, ok
}

func (s *AuthService) persist(ctx context.Context, m *memberdomain.Member) error {
	if s.tokens == nil || s.sessions == nil {
		return nil
	}
	token, expiresAt, err := s.tokens.IssueSession(m.ID, m.Name)
	if err != nil {
		return err
	}
	return s.sessions.Save(ctx, &sessiondomain.Session{
		Token:     token,
		MemberID:  m.ID,
		ExpiresAt: expiresAt,
		CreatedAt: s.now().UTC(),
	})
}

// Logout clears the current identity and the persisted session. The in-memory logout always happens;
// the returned error only reports a failure to delete the persisted session.
func (s *AuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	if prev != nil {
		s.logAudit(ctx, prev.MemberID, prev.Name, auditdomain.ActionLogout, "")
	}
	if s.sessions == nil {
		return nil
	}
	return s.sessions.Clear(ctx)
}

// Restore reloads the persisted session: the token must verify, belong to the saved member and the
// member must still exist. Any mismatch clears the session and returns nil without error.
func (s *AuthService) Restore(ctx context.Context) (*identitydomain.Identity, error) {
	if s.sessions == nil || s.tokens == nil {
		return nil, nil
	}
	sess, err := s.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	memberID, err := s.tokens.ValidateSession(sess.Token)
	var m *memberdomain.Member
	ok := false
	if err == nil && memberID == sess.MemberID {
		m, ok = s.members.Get(memberID)
	}
	if !ok {
		s.log.Info().Str("member_id", sess.MemberID).Msg("stale session discarded")
		return nil, s.sessions.Clear(ctx)
	}
	id := identitydomain.FromMember(m)
	s.mu.Lock()
	s.current = id
	s.mu.Unlock()
	return id, nil
}

// Current returns the logged-in identity re-read from the member directory, so role and department
// changes apply immediately. A member deleted since login is logged out.
func (s *AuthService) Current(ctx context.Context) *identitydomain.Identity {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur == nil {
		return nil
	}
	m, ok := s.members.Get(cur.MemberID)
	if !ok {
		if err := s.Logout(ctx); err != nil {
			s.log.Warn().Err(err).Msg("clear session of deleted member")
		}
		return nil
	}
	id := identitydomain.FromMember(m)
	s.mu.Lock()
	if s.current != nil && s.current.MemberID == id.MemberID {
		s.current = id
	}
	s.mu.Unlock()
	return id
}

func (s *AuthService) logAudit(ctx context.Context, memberID, actor, action, metadata string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, memberID, actor, action, "session", metadata)
}
