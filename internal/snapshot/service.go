package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wealthlog/wealthlog/internal/domain"
	"github.com/wealthlog/wealthlog/internal/valuation"
)

var (
	// ErrMissingLocalDate marks a flush skipped because the caller sent no calendar day.
	ErrMissingLocalDate = errors.New("missing local date")
	// ErrInvalidLocalDate is returned for a local date not in YYYY-MM-DD form.
	ErrInvalidLocalDate = errors.New("invalid local date")
)

// AssetLister provides the live asset list of a group.
type AssetLister interface {
	ListByGroup(ctx context.Context, groupID int64) ([]domain.Asset, error)
}

// RateSource resolves the rates in effect at a point in time.
type RateSource interface {
	RateAsOf(ctx context.Context, t time.Time) (domain.RateMap, error)
}

// Service writes and reads group snapshots.
type Service struct {
	assets AssetLister
	rates  RateSource
	repo   Repository
}

// NewService creates a new snapshot Service. rates may be nil, in which case
// snapshots are stored without cached base amounts.
func NewService(assets AssetLister, rates RateSource, repo Repository) *Service {
	return &Service{assets: assets, rates: rates, repo: repo}
}

// ParseLocalDate validates a caller-supplied calendar day.
func ParseLocalDate(localDate string) (time.Time, error) {
	if localDate == "" {
		return time.Time{}, ErrMissingLocalDate
	}
	t, err := time.ParseInLocation(DateLayout, localDate, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidLocalDate, localDate)
	}
	return t, nil
}

// Flush freezes the group's current assets into the snapshot for localDate.
// localDate is the end user's calendar day, not the server's; when it is empty
// the write is skipped and nil is returned.
func (s *Service) Flush(ctx context.Context, groupID int64, localDate string) error {
	day, err := ParseLocalDate(localDate)
	if errors.Is(err, ErrMissingLocalDate) {
		slog.Info("snapshot skipped", "group", groupID, "reason", err)
		return nil
	}
	if err != nil {
		return err
	}

	assets, err := s.assets.ListByGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("loading assets for group %d: %w", groupID, err)
	}
	if assets == nil {
		assets = []domain.Asset{}
	}

	if s.rates != nil {
		rates, err := s.rates.RateAsOf(ctx, day)
		if err != nil {
			slog.Warn("rate lookup failed, caching bootstrap base amounts", "group", groupID, "error", err)
		}
		assets = valuation.WithBaseAmounts(assets, rates)
	}

	data, err := json.Marshal(assets)
	if err != nil {
		return fmt.Errorf("marshaling assets: %w", err)
	}

	if err := s.repo.Upsert(ctx, groupID, day, data); err != nil {
		return fmt.Errorf("saving snapshot for group %d: %w", groupID, err)
	}

	slog.Info("snapshot saved", "group", groupID, "date", localDate, "assets", len(assets))
	return nil
}

// List retrieves the group's snapshots within [from, to], oldest first.
func (s *Service) List(ctx context.Context, groupID int64, from, to *time.Time) ([]Snapshot, error) {
	return s.repo.List(ctx, groupID, from, to)
}

// GetByDate retrieves a snapshot for a specific day.
func (s *Service) GetByDate(ctx context.Context, groupID int64, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, groupID, date)
}

// GetLatest retrieves the most recent snapshot for the group.
func (s *Service) GetLatest(ctx context.Context, groupID int64) (*Snapshot, error) {
	return s.repo.GetLatest(ctx, groupID)
}
