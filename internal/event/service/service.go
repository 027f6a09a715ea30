// Package service implements the church agenda: creation by leaders and office staff, removal
// guarded by department ownership, and a global date-ordered listing.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"iesa-console/backend/internal/audit"
	auditdomain "iesa-console/backend/internal/audit/domain"
	"iesa-console/backend/internal/department"
	"iesa-console/backend/internal/event/domain"
	identitydomain "iesa-console/backend/internal/identity/domain"
	"iesa-console/backend/internal/kvstore"
	"iesa-console/backend/internal/platform/rbac"
)

// Notifier receives the "new activity" announcement.
type Notifier interface {
	Notify(ctx context.Context, message, author string)
}

// Service owns the event list persisted under kvstore.KeyEvents.
type Service struct {
	mu        sync.Mutex
	store     kvstore.Store
	events    []domain.Event
	evaluator *rbac.Evaluator
	notifier  Notifier
	audit     audit.AuditLogger
	newID     func() string
	log       zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithAudit(a audit.AuditLogger) Option { return func(s *Service) { s.audit = a } }

func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }

func WithLogger(log zerolog.Logger) Option { return func(s *Service) { s.log = log } }

// NewService loads the persisted events. evaluator may be nil (default static gate).
func NewService(ctx context.Context, store kvstore.Store, evaluator *rbac.Evaluator, opts ...Option) (*Service, error) {
	events, err := kvstore.LoadJSON[domain.Event](ctx, store, kvstore.KeyEvents)
	if err != nil {
		return nil, fmt.Errorf("event: %w", err)
	}
	if evaluator == nil {
		evaluator = rbac.NewEvaluator(nil, nil)
	}
	s := &Service{
		store:     store,
		events:    events,
		evaluator: evaluator,
		newID:     uuid.NewString,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// canCreate: office staff, or a leader bound to a real department.
func canCreate(id *identitydomain.Identity) bool {
	switch {
	case id.IsSuperAdmin(), id.IsAdmin(), id.IsSecretary():
		return true
	case id.IsDeptLeader():
		return id.HasDepartment()
	default:
		return false
	}
}

// Create validates in, stamps the department, prefixes the title with the activity type and
// prepends the event to the agenda.
func (s *Service) Create(ctx context.Context, id *identitydomain.Identity, in domain.Input) (domain.Event, error) {
	if err := s.evaluator.RequireFeature(ctx, id, rbac.FeatureEvents); err != nil {
		return domain.Event{}, err
	}
	if err := in.Validate(); err != nil {
		return domain.Event{}, err
	}
	if !canCreate(id) {
		return domain.Event{}, rbac.ErrForbidden
	}
	activity := department.NormalizeActivityType(in.Type)
	ev := domain.Event{
		ID:          s.newID(),
		Title:       activity + ": " + strings.TrimSpace(in.Title),
		Date:        strings.TrimSpace(in.Date),
		Time:        strings.TrimSpace(in.Time),
		Location:    strings.TrimSpace(in.Location),
		Department:  s.evaluator.StampDepartment(id, strings.TrimSpace(in.Department)),
		Description: strings.TrimSpace(in.Description),
	}

	s.mu.Lock()
	next := make([]domain.Event, 0, len(s.events)+1)
	next = append(next, ev)
	next = append(next, s.events...)
	if err := kvstore.SaveJSON(ctx, s.store, kvstore.KeyEvents, next); err != nil {
		s.mu.Unlock()
		return domain.Event{}, fmt.Errorf("event: %w", err)
	}
	s.events = next
	s.mu.Unlock()

	s.log.Info().Str("event_id", ev.ID).Str("department", ev.Department).Str("by", id.MemberID).Msg("event created")
	if s.notifier != nil {
		s.notifier.Notify(ctx, "New activity announced: "+activity, id.Name)
	}
	if s.audit != nil {
		s.audit.LogEvent(ctx, id.MemberID, id.Name, auditdomain.ActionEventCreated, "event", ev.ID)
	}
	return ev, nil
}

// Remove deletes the event when id may modify records of its department. Returns false when no
// event has eventID.
func (s *Service) Remove(ctx context.Context, id *identitydomain.Identity, eventID string) (bool, error) {
	s.mu.Lock()
	idx := -1
	for i, e := range s.events {
		if e.ID == eventID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	target := s.events[idx]
	if err := s.evaluator.RequireModify(id, target.Department); err != nil {
		s.mu.Unlock()
		if errors.Is(err, rbac.ErrForbidden) && s.audit != nil {
			s.audit.LogEvent(ctx, id.MemberID, id.Name, auditdomain.ActionForbidden, "event", eventID)
		}
		return false, err
	}
	next := make([]domain.Event, 0, len(s.events)-1)
	next = append(next, s.events[:idx]...)
	next = append(next, s.events[idx+1:]...)
	if err := kvstore.SaveJSON(ctx, s.store, kvstore.KeyEvents, next); err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("event: %w", err)
	}
	s.events = next
	s.mu.Unlock()

	if s.audit != nil {
		s.audit.LogEvent(ctx, id.MemberID, id.Name, auditdomain.ActionEventRemoved, "event", eventID)
	}
	return true, nil
}

// List returns the whole agenda filtered by search (title or location) and ordered by date,
// earliest first. Events with malformed dates go last. The agenda is not department-scoped.
func (s *Service) List(ctx context.Context, search string) []domain.Event {
	s.mu.Lock()
	out := make([]domain.Event, 0, len(s.events))
	for _, e := range s.events {
		if e.Matches(search) {
			out = append(out, e)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		di, oki := out[i].Day()
		dj, okj := out[j].Day()
		if oki != okj {
			return oki
		}
		return di.Before(dj)
	})
	return out
}

// CanDelete reports whether id may remove e (used to render delete controls).
func (s *Service) CanDelete(id *identitydomain.Identity, e domain.Event) bool {
	return s.evaluator.CanModify(id, e.Department)
}
