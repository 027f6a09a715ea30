// Package service implements the membership store: the single owner and mutator of the member collection.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"iesa-console/backend/internal/config"
	"iesa-console/backend/internal/department"
	"iesa-console/backend/internal/member/domain"
	"iesa-console/backend/internal/member/repository"
	"iesa-console/backend/internal/security"
	"iesa-console/backend/internal/telemetry"
)

// Settings are the organizational constants the store applies.
type Settings struct {
	CodePrefix         string
	DefaultBranch      string
	ChildrenDepartment string
	YouthDepartment    string
	TransitionAge      int
}

// SettingsFromConfig extracts the store settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		CodePrefix:         cfg.AccessCodePrefix,
		DefaultBranch:      cfg.DefaultBranch,
		ChildrenDepartment: cfg.ChildrenDepartment,
		YouthDepartment:    cfg.YouthDepartment,
		TransitionAge:      cfg.TransitionAge,
	}
}

// DefaultSettings returns IESA-, Centro, DCIESA -> JIESA at 18.
func DefaultSettings() Settings {
	return Settings{
		CodePrefix:         "IESA",
		DefaultBranch:      "Centro",
		ChildrenDepartment: "DCIESA",
		YouthDepartment:    "JIESA",
		TransitionAge:      18,
	}
}

// Notifier receives human-readable announcements (the notification feed).
type Notifier interface {
	Notify(ctx context.Context, message, author string)
}

// Store owns the member collection. All mutations are serialized and persisted before they become visible;
// a failed save leaves the in-memory collection untouched.
type Store struct {
	mu       sync.Mutex
	members  []*domain.Member
	repo     repository.Repository
	settings Settings

	creds    security.Credentials
	now      func() time.Time
	newID    func() string
	newCode  func(prefix string) (string, error)
	notifier Notifier
	emitter  telemetry.EventEmitter
	metrics  *telemetry.Metrics
	log      zerolog.Logger
	onChange func()
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDGenerator overrides the UUIDv4 id generator.
func WithIDGenerator(f func() string) Option { return func(s *Store) { s.newID = f } }

// WithCodeGenerator overrides the access code generator.
func WithCodeGenerator(f func(prefix string) (string, error)) Option {
	return func(s *Store) { s.newCode = f }
}

// WithCredentials sets how access codes are sealed. Defaults to plain storage.
func WithCredentials(c security.Credentials) Option { return func(s *Store) { s.creds = c } }

func WithNotifier(n Notifier) Option { return func(s *Store) { s.notifier = n } }

func WithEmitter(e telemetry.EventEmitter) Option { return func(s *Store) { s.emitter = e } }

func WithMetrics(m *telemetry.Metrics) Option { return func(s *Store) { s.metrics = m } }

func WithLogger(l zerolog.Logger) Option { return func(s *Store) { s.log = l } }

// WithChangeHook registers f to run after every successful mutation (outside the store lock).
// The app wires it to Sweeper.Trigger.
func WithChangeHook(f func()) Option { return func(s *Store) { s.onChange = f } }

// NewStore loads the persisted collection and returns the store.
func NewStore(ctx context.Context, repo repository.Repository, settings Settings, opts ...Option) (*Store, error) {
	s := &Store{
		repo:     repo,
		settings: settings,
		creds:    security.PlainCredentials{},
		now:      time.Now,
		newID:    uuid.NewString,
		newCode:  security.NewAccessCode,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	members, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	s.members = members
	s.metrics.SetMembers(len(members))
	return s, nil
}

// commit persists next and swaps it in. Caller holds s.mu.
func (s *Store) commit(ctx context.Context, next []*domain.Member) error {
	if err := s.repo.SaveAll(ctx, next); err != nil {
		return fmt.Errorf("save members: %w", err)
	}
	s.members = next
	s.metrics.SetMembers(len(next))
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, m := range s.members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// replaced returns a copy of the collection with index i set to m.
func (s *Store) replaced(i int, m *domain.Member) []*domain.Member {
	next := make([]*domain.Member, len(s.members))
	copy(next, s.members)
	next[i] = m
	return next
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *Store) emit(typ string, m *domain.Member, detail string) {
	telemetry.EmitAsync(s.emitter, s.log, &telemetry.MemberEvent{
		Type:       typ,
		MemberID:   m.ID,
		Name:       m.Name,
		Department: m.Department,
		Detail:     detail,
		At:         s.now().UTC(),
	})
}

// Register validates p, creates the member with a fresh id, access code and REGISTRATION entry, and persists it.
// The returned copy carries the access code as issued, even when the stored credential is sealed.
func (s *Store) Register(ctx context.Context, p domain.Patch) (*domain.Member, error) {
	if p.Name == nil || strings.TrimSpace(*p.Name) == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "is required"}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	code, err := s.newCode(s.settings.CodePrefix)
	if err != nil {
		return nil, fmt.Errorf("generate access code: %w", err)
	}
	sealed, err := s.creds.Seal(code)
	if err != nil {
		return nil, fmt.Errorf("seal access code: %w", err)
	}
	now := s.now().UTC()
	m := &domain.Member{
		ID:               s.newID(),
		Role:             domain.RoleMember,
		Branch:           s.settings.DefaultBranch,
		Participation:    domain.ParticipationActive,
		AccessCode:       sealed,
		RegistrationDate: now,
	}
	p.Apply(m)
	if m.Branch == "" {
		m.Branch = s.settings.DefaultBranch
	}
	if err := checkRoleInDept(m); err != nil {
		return nil, err
	}
	m.History = []domain.HistoryEntry{{
		ID:          s.newID(),
		Date:        now,
		Type:        domain.HistoryRegistration,
		Description: "Member registered in the system.",
	}}

	s.mu.Lock()
	next := make([]*domain.Member, len(s.members), len(s.members)+1)
	copy(next, s.members)
	next = append(next, m)
	err = s.commit(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("member_id", m.ID).Str("department", m.Department).Msg("member registered")
	s.metrics.MemberRegistered()
	s.emit(telemetry.EventMemberRegistered, m, "")
	if s.notifier != nil {
		s.notifier.Notify(ctx, s.registrationNotice(m.Name, code), "Admin")
	}
	s.changed()

	out := m.Clone()
	out.AccessCode = code
	return out, nil
}

// registrationNotice announces a new member. The issued code is only included while codes are stored
// as issued.
func (s *Store) registrationNotice(name, code string) string {
	if _, plain := s.creds.(security.PlainCredentials); plain {
		return fmt.Sprintf("Members: %s registered. Access code: %s", name, code)
	}
	return fmt.Sprintf("Members: %s registered.", name)
}

// checkRoleInDept rejects an in-department role the member's department does not define. Members of
// departments outside the catalog keep any role.
func checkRoleInDept(m *domain.Member) error {
	if m.RoleInDept == "" {
		return nil
	}
	roles := department.RolesFor(m.Department)
	if roles == nil {
		return nil
	}
	for _, r := range roles {
		if strings.EqualFold(r, m.RoleInDept) {
			m.RoleInDept = r
			return nil
		}
	}
	return &domain.ValidationError{
		Field:   "roleInDept",
		Message: fmt.Sprintf("%q is not a role of %s (%s)", m.RoleInDept, m.Department, strings.Join(roles, ", ")),
	}
}

// Update merges the whitelisted fields of p into the member. Returns false when id is unknown.
// No history entry is written; callers that want one call AppendHistory.
func (s *Store) Update(ctx context.Context, id string, p domain.Patch) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	updated := s.members[i].Clone()
	p.Apply(updated)
	if p.RoleInDept != nil || p.Department != nil {
		if err := checkRoleInDept(updated); err != nil {
			s.mu.Unlock()
			return false, err
		}
	}
	err := s.commit(ctx, s.replaced(i, updated))
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	s.emit(telemetry.EventMemberUpdated, updated, "")
	s.changed()
	return true, nil
}

// Delete removes the member and its whole history. Returns false when id is unknown.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	removed := s.members[i]
	next := make([]*domain.Member, 0, len(s.members)-1)
	next = append(next, s.members[:i]...)
	next = append(next, s.members[i+1:]...)
	err := s.commit(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	s.log.Info().Str("member_id", id).Msg("member deleted")
	s.metrics.MemberDeleted()
	s.emit(telemetry.EventMemberDeleted, removed, "")
	s.changed()
	return true, nil
}

// AppendHistory appends entry to the member's history. The store assigns the entry id and, when
// entry.Date is zero, the current instant. Returns false when the member is unknown.
func (s *Store) AppendHistory(ctx context.Context, memberID string, entry domain.HistoryEntry) (bool, error) {
	if !entry.Type.Valid() {
		return false, &domain.ValidationError{Field: "type", Message: fmt.Sprintf("unknown history type %q", entry.Type)}
	}
	entry.ID = s.newID()
	if entry.Date.IsZero() {
		entry.Date = s.now()
	}
	entry.Date = entry.Date.UTC()

	s.mu.Lock()
	i := s.indexOf(memberID)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	updated := s.members[i].Clone()
	updated.History = append(updated.History, entry)
	err := s.commit(ctx, s.replaced(i, updated))
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	s.emit(telemetry.EventHistoryAppended, updated, string(entry.Type))
	s.changed()
	return true, nil
}

// EnsureMember returns the member whose name matches p.Name, registering it when absent.
// The bool reports whether a new member was created.
func (s *Store) EnsureMember(ctx context.Context, p domain.Patch) (*domain.Member, bool, error) {
	if p.Name != nil {
		if m, ok := s.FindByName(*p.Name); ok {
			return m, false, nil
		}
	}
	m, err := s.Register(ctx, p)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// SetAccessCode replaces a member's credential with code (sealed). Used to seed known credentials.
func (s *Store) SetAccessCode(ctx context.Context, id, code string) (bool, error) {
	if strings.TrimSpace(code) == "" {
		return false, &domain.ValidationError{Field: "accessCode", Message: "must not be empty"}
	}
	sealed, err := s.creds.Seal(code)
	if err != nil {
		return false, fmt.Errorf("seal access code: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	updated := s.members[i].Clone()
	updated.AccessCode = sealed
	if err := s.commit(ctx, s.replaced(i, updated)); err != nil {
		return false, err
	}
	return true, nil
}

// Authenticate returns the first member whose name matches case-insensitively and whose credential
// matches code exactly.
func (s *Store) Authenticate(name, code string) (*domain.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.NameMatches(name) && s.creds.Match(m.AccessCode, code) {
			return m.Clone(), true
		}
	}
	return nil, false
}

// Get returns a copy of the member with id.
func (s *Store) Get(id string) (*domain.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.members[i].Clone(), true
	}
	return nil, false
}

// FindByName returns a copy of the first member whose name matches case-insensitively.
func (s *Store) FindByName(name string) (*domain.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.NameMatches(name) {
			return m.Clone(), true
		}
	}
	return nil, false
}

// List returns copies of all members in insertion order.
func (s *Store) List() []*domain.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Member, len(s.members))
	for i, m := range s.members {
		out[i] = m.Clone()
	}
	return out
}

// Len returns the number of members.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}
