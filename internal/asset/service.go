package asset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wealthlog/wealthlog/internal/domain"
	"github.com/wealthlog/wealthlog/internal/group"
)

// ErrInvalid indicates an asset that fails validation.
var ErrInvalid = errors.New("invalid asset")

// SnapshotScheduler is notified after every successful mutation. localDate is
// the caller's calendar day (YYYY-MM-DD) and may be empty.
type SnapshotScheduler interface {
	Schedule(groupID int64, localDate string)
}

// GroupResolver maps a requested group id to a stored group. Zero selects the
// default group.
type GroupResolver interface {
	Resolve(ctx context.Context, id int64) (int64, error)
}

// fallbackGroupID is used for unset group ids when no resolver is configured.
const fallbackGroupID = 1

// Service manages assets and triggers snapshot refreshes.
type Service struct {
	repo      Repository
	groups    GroupResolver
	scheduler SnapshotScheduler
}

// NewService creates a new asset Service. groups may be nil, in which case
// group ids are not checked.
func NewService(repo Repository, groups GroupResolver, scheduler SnapshotScheduler) *Service {
	return &Service{repo: repo, groups: groups, scheduler: scheduler}
}

// ListByGroup returns every asset in the group, newest first.
func (s *Service) ListByGroup(ctx context.Context, groupID int64) ([]domain.Asset, error) {
	return s.repo.ListByGroup(ctx, groupID)
}

// Get returns a single asset.
func (s *Service) Get(ctx context.Context, id int64) (domain.Asset, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new asset and schedules a snapshot of its group.
func (s *Service) Create(ctx context.Context, a domain.Asset, localDate string) (domain.Asset, error) {
	a, err := s.prepare(ctx, a)
	if err != nil {
		return domain.Asset{}, err
	}

	created, err := s.repo.Create(ctx, a)
	if err != nil {
		return domain.Asset{}, err
	}
	s.schedule(created.GroupID, localDate)
	return created, nil
}

// Update replaces an asset. When the asset moves between groups both groups
// are scheduled.
func (s *Service) Update(ctx context.Context, a domain.Asset, localDate string) (domain.Asset, error) {
	a, err := s.prepare(ctx, a)
	if err != nil {
		return domain.Asset{}, err
	}

	prev, err := s.repo.Get(ctx, a.ID)
	if err != nil {
		return domain.Asset{}, err
	}

	updated, err := s.repo.Update(ctx, a)
	if err != nil {
		return domain.Asset{}, err
	}
	s.schedule(updated.GroupID, localDate)
	if prev.GroupID != updated.GroupID {
		s.schedule(prev.GroupID, localDate)
	}
	return updated, nil
}

// Delete removes an asset and schedules a snapshot of its former group.
func (s *Service) Delete(ctx context.Context, id int64, localDate string) error {
	groupID, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.schedule(groupID, localDate)
	return nil
}

// prepare normalizes and validates a, resolving its group.
func (s *Service) prepare(ctx context.Context, a domain.Asset) (domain.Asset, error) {
	a = normalize(a)
	if err := validate(a); err != nil {
		return domain.Asset{}, err
	}

	if s.groups == nil {
		if a.GroupID == 0 {
			a.GroupID = fallbackGroupID
		}
		return a, nil
	}
	id, err := s.groups.Resolve(ctx, a.GroupID)
	if err != nil {
		if errors.Is(err, group.ErrNotFound) || errors.Is(err, group.ErrInvalid) {
			return domain.Asset{}, fmt.Errorf("%w: group %d: %w", ErrInvalid, a.GroupID, err)
		}
		return domain.Asset{}, fmt.Errorf("resolving group: %w", err)
	}
	a.GroupID = id
	return a, nil
}

func (s *Service) schedule(groupID int64, localDate string) {
	if s.scheduler == nil {
		return
	}
	s.scheduler.Schedule(groupID, localDate)
	slog.Debug("snapshot scheduled", "group", groupID, "localDate", localDate)
}

func normalize(a domain.Asset) domain.Asset {
	a.Name = strings.TrimSpace(a.Name)
	a.Currency = domain.NormalizeCode(a.Currency)
	a.BaseAmount = nil
	return a
}

func validate(a domain.Asset) error {
	switch {
	case a.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case a.Currency == "":
		return fmt.Errorf("%w: currency is required", ErrInvalid)
	case a.Amount.IsNegative():
		return fmt.Errorf("%w: amount must not be negative", ErrInvalid)
	case a.GroupID < 0:
		return fmt.Errorf("%w: groupId must not be negative", ErrInvalid)
	}
	return nil
}
