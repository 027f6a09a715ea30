// Package app assembles the console: storage, membership store, access evaluator, auth, agenda,
// notifications and the transition sweeper, with their telemetry.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"iesa-console/backend/internal/audit"
	auditdomain "iesa-console/backend/internal/audit/domain"
	auditrepo "iesa-console/backend/internal/audit/repository"
	"iesa-console/backend/internal/config"
	eventservice "iesa-console/backend/internal/event/service"
	identitydomain "iesa-console/backend/internal/identity/domain"
	identityservice "iesa-console/backend/internal/identity/service"
	"iesa-console/backend/internal/kvstore"
	memberdomain "iesa-console/backend/internal/member/domain"
	memberrepo "iesa-console/backend/internal/member/repository"
	memberservice "iesa-console/backend/internal/member/service"
	"iesa-console/backend/internal/notification"
	"iesa-console/backend/internal/platform/rbac"
	"iesa-console/backend/internal/policy/engine"
	"iesa-console/backend/internal/security"
	sessionrepo "iesa-console/backend/internal/session/repository"
	"iesa-console/backend/internal/telemetry"
	telemetryotel "iesa-console/backend/internal/telemetry/otel"
	"iesa-console/backend/internal/telemetry/producer"
)

// Console is the application context. Build it with New and release it with Close.
type Console struct {
	Config   *config.Config
	Log      zerolog.Logger
	Storage  kvstore.Store
	Members  *memberservice.Store
	Sweeper  *memberservice.Sweeper
	Gate     rbac.Gate
	Access   *rbac.Evaluator
	Auth     *identityservice.AuthService
	Events   *eventservice.Service
	Feed     *notification.Feed
	Audit    *audit.Logger
	Metrics  *telemetry.Metrics
	Tokens   *security.TokenProvider
	Otel     *telemetryotel.Providers
	producer producer.Producer

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	store   kvstore.Store
	clock   func() time.Time
	codeGen func(prefix string) (string, error)
}

// Option customizes New.
type Option func(*options)

// WithStore uses s instead of opening the storage named by the config.
func WithStore(s kvstore.Store) Option { return func(o *options) { o.store = s } }

// WithClock overrides the membership store clock.
func WithClock(now func() time.Time) Option { return func(o *options) { o.clock = now } }

// WithCodeGenerator overrides access code generation.
func WithCodeGenerator(f func(prefix string) (string, error)) Option {
	return func(o *options) { o.codeGen = f }
}

// New wires the console from cfg. On error every component opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (_ *Console, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	c := &Console{Config: cfg, Log: log, Metrics: telemetry.NewMetrics()}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	c.Storage = o.store
	if c.Storage == nil {
		if c.Storage, err = kvstore.Open(ctx, cfg); err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
	}

	if c.Otel, err = telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, "iesa-console", cfg.OTLPInsecure); err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}
	c.Otel.SetGlobal()
	emitters := telemetry.MultiEmitter{telemetryotel.NewSpanEmitter(c.Otel.TracerProvider)}
	if kp := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.MemberEventsTopic); kp != nil {
		c.producer = kp
		emitters = append(emitters, kp)
		log.Info().Str("topic", kp.Topic()).Msg("publishing member events to kafka")
	}

	c.Audit = audit.NewLogger(auditrepo.NewKVRepository(c.Storage, cfg.AuditLimit), log.With().Str("component", "audit").Logger())
	if c.Feed, err = notification.NewFeed(ctx, c.Storage, cfg.NotificationLimit, log); err != nil {
		return nil, err
	}

	memberOpts := []memberservice.Option{
		memberservice.WithCredentials(security.NewCredentials(cfg.CredentialScheme, cfg.BcryptCost)),
		memberservice.WithNotifier(c.Feed),
		memberservice.WithEmitter(emitters),
		memberservice.WithMetrics(c.Metrics),
		memberservice.WithLogger(log.With().Str("component", "members").Logger()),
		memberservice.WithChangeHook(c.triggerSweep),
	}
	if o.clock != nil {
		memberOpts = append(memberOpts, memberservice.WithClock(o.clock))
	}
	if o.codeGen != nil {
		memberOpts = append(memberOpts, memberservice.WithCodeGenerator(o.codeGen))
	}
	if c.Members, err = memberservice.NewStore(ctx, memberrepo.NewKVRepository(c.Storage), memberservice.SettingsFromConfig(cfg), memberOpts...); err != nil {
		return nil, err
	}
	c.Sweeper = memberservice.NewSweeper(c.Members, cfg.Debounce(), log.With().Str("component", "sweeper").Logger())

	c.Gate = engine.NewGate(ctx, cfg, log)
	c.Access = rbac.NewEvaluator(c.Gate, c.Metrics)

	signer, pub, err := security.LoadKeyPair(cfg.SessionPrivateKey, cfg.SessionPublicKey)
	if err != nil {
		return nil, fmt.Errorf("session keys: %w", err)
	}
	log.Info().Str("alg", security.KeyAlg(pub)).Bool("ephemeral", cfg.SessionPrivateKey == "").Msg("session signing key")
	c.Tokens = security.NewTokenProvider(signer, pub, cfg.SessionIssuer, cfg.SessionLifetime())
	c.Auth = identityservice.NewAuthService(c.Members, sessionrepo.NewKVRepository(c.Storage), c.Tokens, c.Audit, c.Metrics,
		log.With().Str("component", "auth").Logger())

	if c.Events, err = eventservice.NewService(ctx, c.Storage, c.Access,
		eventservice.WithNotifier(c.Feed),
		eventservice.WithAudit(c.Audit),
		eventservice.WithLogger(log.With().Str("component", "events").Logger()),
	); err != nil {
		return nil, err
	}

	if cfg.BootstrapAdminName != "" {
		if err = c.ensureAdmin(ctx, cfg.BootstrapAdminName, cfg.BootstrapAdminCode); err != nil {
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}
	return c, nil
}

func (c *Console) triggerSweep() {
	if c.Sweeper != nil {
		c.Sweeper.Trigger()
	}
}

// ensureAdmin registers a super admin named name when none exists and sets its access code to code.
func (c *Console) ensureAdmin(ctx context.Context, name, code string) error {
	m, created, err := c.EnsureSuperAdmin(ctx, name, code)
	if err != nil {
		return err
	}
	c.Log.Info().Str("member_id", m.ID).Bool("created", created).Msg("bootstrap admin ready")
	return nil
}

// EnsureSuperAdmin makes sure a super admin named name exists with access code code. Idempotent.
func (c *Console) EnsureSuperAdmin(ctx context.Context, name, code string) (*memberdomain.Member, bool, error) {
	m, created, err := c.Members.EnsureMember(ctx, memberdomain.Patch{
		Name:       memberdomain.Ptr(name),
		Role:       memberdomain.Ptr(memberdomain.RoleSuperAdmin),
		Department: memberdomain.Ptr(memberdomain.GeneralDepartment),
	})
	if err != nil {
		return nil, false, err
	}
	if _, err := c.Members.SetAccessCode(ctx, m.ID, code); err != nil {
		return nil, false, err
	}
	return m, created, nil
}

// Login authenticates the console user.
func (c *Console) Login(ctx context.Context, name, code string) identityservice.LoginResult {
	return c.Auth.Login(ctx, name, code)
}

// Logout ends the console session.
func (c *Console) Logout(ctx context.Context) error {
	return c.Auth.Logout(ctx)
}

// Current returns the logged-in identity, or nil.
func (c *Console) Current(ctx context.Context) *identitydomain.Identity {
	return c.Auth.Current(ctx)
}

// CanAccess reports whether the acting identity may open feature.
func (c *Console) CanAccess(ctx context.Context, feature rbac.Feature) bool {
	return c.Access.CanAccess(ctx, c.actor(ctx), feature)
}

// VisibleMembers returns the members the acting identity may see for q.
func (c *Console) VisibleMembers(ctx context.Context, q rbac.Query) []*memberdomain.Member {
	return c.Access.FilterVisible(c.actor(ctx), c.Members.List(), q)
}

// actor returns the identity member writes are made as: the member named by the context when set,
// otherwise the console session. Nil when neither resolves to an existing member.
func (c *Console) actor(ctx context.Context) *identitydomain.Identity {
	if memberID, ok := identitydomain.GetMemberID(ctx); ok {
		m, found := c.Members.Get(memberID)
		if !found {
			return nil
		}
		return identitydomain.FromMember(m)
	}
	return c.Current(ctx)
}

// authorizeTarget checks that cur may change the existing member target with patch p.
func (c *Console) authorizeTarget(cur *identitydomain.Identity, target *memberdomain.Member, p *memberdomain.Patch) error {
	if err := c.Access.RequireModify(cur, target.Department); err != nil {
		return err
	}
	if err := c.Access.RequireAssignRole(cur, target.Role); err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	if p.Department != nil {
		if err := c.Access.RequireModify(cur, *p.Department); err != nil {
			return err
		}
	}
	if p.Role != nil {
		return c.Access.RequireAssignRole(cur, *p.Role)
	}
	return nil
}

// denied records a forbidden member write in the audit log and returns err.
func (c *Console) denied(ctx context.Context, cur *identitydomain.Identity, err error, detail string) error {
	if cur != nil && errors.Is(err, rbac.ErrForbidden) {
		c.Audit.LogEvent(ctx, cur.MemberID, cur.Name, auditdomain.ActionForbidden, "member", detail)
	}
	return err
}

// RegisterMember registers a member on behalf of the acting identity (see memberservice.Store.Register).
// Leaders register into their own department; role grants follow rbac.Evaluator.CanAssignRole.
func (c *Console) RegisterMember(ctx context.Context, p memberdomain.Patch) (*memberdomain.Member, error) {
	cur := c.actor(ctx)
	if cur == nil {
		return nil, rbac.ErrUnauthenticated
	}
	dept := ""
	if p.Department != nil {
		dept = *p.Department
	}
	if cur.IsDeptLeader() {
		dept = c.Access.StampDepartment(cur, dept)
		p.Department = memberdomain.Ptr(dept)
	}
	role := memberdomain.RoleMember
	if p.Role != nil {
		role = *p.Role
	}
	err := c.Access.RequireModify(cur, dept)
	if err == nil {
		err = c.Access.RequireAssignRole(cur, role)
	}
	if err != nil {
		return nil, c.denied(ctx, cur, err, "register "+string(role)+" in "+dept)
	}
	return c.Members.Register(ctx, p)
}

// UpdateMember merges p into the member with id. Returns false when id is unknown.
func (c *Console) UpdateMember(ctx context.Context, id string, p memberdomain.Patch) (bool, error) {
	cur := c.actor(ctx)
	if cur == nil {
		return false, rbac.ErrUnauthenticated
	}
	target, found := c.Members.Get(id)
	if !found {
		return false, nil
	}
	if err := c.authorizeTarget(cur, target, &p); err != nil {
		return false, c.denied(ctx, cur, err, "update "+id)
	}
	return c.Members.Update(ctx, id, p)
}

// DeleteMember removes the member with id and records who did it in the audit log.
func (c *Console) DeleteMember(ctx context.Context, id string) (bool, error) {
	cur := c.actor(ctx)
	if cur == nil {
		return false, rbac.ErrUnauthenticated
	}
	target, found := c.Members.Get(id)
	if !found {
		return false, nil
	}
	detail := id + " " + target.Name
	if err := c.authorizeTarget(cur, target, nil); err != nil {
		return false, c.denied(ctx, cur, err, "delete "+detail)
	}
	ok, err := c.Members.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	c.Audit.LogEvent(ctx, cur.MemberID, cur.Name, auditdomain.ActionMemberDeleted, "member", detail)
	return true, nil
}

// AppendHistory adds a history entry to the member with id.
func (c *Console) AppendHistory(ctx context.Context, id string, entry memberdomain.HistoryEntry) (bool, error) {
	cur := c.actor(ctx)
	if cur == nil {
		return false, rbac.ErrUnauthenticated
	}
	target, found := c.Members.Get(id)
	if !found {
		return false, nil
	}
	if err := c.authorizeTarget(cur, target, nil); err != nil {
		return false, c.denied(ctx, cur, err, "history "+id)
	}
	return c.Members.AppendHistory(ctx, id, entry)
}

// RunTransitionSweep runs the DCIESA to JIESA transition sweep now.
func (c *Console) RunTransitionSweep(ctx context.Context) (memberservice.SweepResult, error) {
	return c.Members.RunTransitionSweep(ctx)
}

// Close stops the sweeper and releases the producer, telemetry providers and storage. Safe to call twice.
func (c *Console) Close() error {
	c.closeOnce.Do(func() {
		var errs []error
		if c.Sweeper != nil {
			c.Sweeper.Close()
		}
		if c.producer != nil {
			if err := c.producer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("kafka: %w", err))
			}
		}
		if c.Otel != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.Otel.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("otel: %w", err))
			}
			cancel()
		}
		if c.Storage != nil {
			if err := c.Storage.Close(); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}
