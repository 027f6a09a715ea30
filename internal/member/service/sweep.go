package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"iesa-console/backend/internal/member/domain"
	"iesa-console/backend/internal/telemetry"
)

// SweepResult reports what a transition sweep did.
type SweepResult struct {
	// Transitioned lists the ids moved to the youth department, in collection order.
	Transitioned []string
	// Skipped counts members with a missing or unparsable birth date.
	Skipped int
}

// RunTransitionSweep moves every children-department member aged TransitionAge or more into the youth
// department and appends a TRANSITION entry. A member whose history already has a TRANSITION entry naming
// the youth department is left alone, so repeated sweeps never duplicate or revert a transition.
func (s *Store) RunTransitionSweep(ctx context.Context) (SweepResult, error) {
	ctx, span := otel.Tracer("iesa-console/member").Start(ctx, "member.transition_sweep")
	defer span.End()
	started := time.Now()

	var res SweepResult
	var moved []*domain.Member

	s.mu.Lock()
	now := s.now()
	var next []*domain.Member
	children, youth := s.settings.ChildrenDepartment, s.settings.YouthDepartment
	for i, m := range s.members {
		if m.BirthDate == "" {
			res.Skipped++
			continue
		}
		birth, err := domain.ParseBirthDate(m.BirthDate)
		if err != nil {
			res.Skipped++
			continue
		}
		if m.Department != children {
			continue
		}
		age := domain.Age(birth, now)
		if age < s.settings.TransitionAge || m.HasTransitionTo(youth) {
			continue
		}
		if next == nil {
			next = make([]*domain.Member, len(s.members))
			copy(next, s.members)
		}
		updated := m.Clone()
		updated.Department = youth
		updated.History = append(updated.History, domain.HistoryEntry{
			ID:          s.newID(),
			Date:        now.UTC(),
			Type:        domain.HistoryTransition,
			Description: fmt.Sprintf("Automatic transition from %s to %s (age: %d)", children, youth, age),
		})
		next[i] = updated
		moved = append(moved, updated)
		res.Transitioned = append(res.Transitioned, updated.ID)
	}
	var err error
	if next != nil {
		err = s.commit(ctx, next)
	}
	s.mu.Unlock()

	s.metrics.SweepFinished(len(moved), time.Since(started), err)
	span.SetAttributes(
		attribute.Int("sweep.transitioned", len(res.Transitioned)),
		attribute.Int("sweep.skipped", res.Skipped),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		s.log.Error().Err(err).Int("pending", len(moved)).Msg("transition sweep not saved")
		return SweepResult{Skipped: res.Skipped}, err
	}
	for _, m := range moved {
		s.log.Info().Str("member_id", m.ID).Str("department", m.Department).Msg("member transitioned")
		s.emit(telemetry.EventMemberTransitioned, m, m.History[len(m.History)-1].Description)
	}
	return res, nil
}
