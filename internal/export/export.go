// Package export writes the normalized wealth series to spreadsheets.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wealthlog/wealthlog/internal/domain"
	"github.com/wealthlog/wealthlog/internal/series"
	"github.com/wealthlog/wealthlog/internal/snapshot"
)

// Sheet names used by every writer.
const (
	SeriesSheet = "SERIES"
	AssetsSheet = "ASSETS"
)

// SheetWriter writes prepared sheets to a spreadsheet destination.
// Each sheet is a header row followed by data rows.
type SheetWriter interface {
	Write(ctx context.Context, sheets map[string][][]any) error
}

// SnapshotLister lists stored snapshots of a group.
type SnapshotLister interface {
	List(ctx context.Context, groupID int64, from, to *time.Time) ([]snapshot.Snapshot, error)
}

// SeriesBuilder normalizes snapshots into a series.
type SeriesBuilder interface {
	Build(ctx context.Context, snapshots []snapshot.Snapshot, req series.Request) (series.Series, error)
}

// Request selects what to export.
type Request struct {
	GroupID     int64
	Currency    string
	CountedOnly bool
}

// Service builds the series for a group and delegates writing to a SheetWriter.
type Service struct {
	snapshots SnapshotLister
	series    SeriesBuilder
	writer    SheetWriter
}

// NewService creates a new export Service.
func NewService(snapshots SnapshotLister, builder SeriesBuilder, writer SheetWriter) *Service {
	return &Service{
		snapshots: snapshots,
		series:    builder,
		writer:    writer,
	}
}

// Export writes the group's full history and the latest per-asset breakdown.
func (s *Service) Export(ctx context.Context, req Request) error {
	snaps, err := s.snapshots.List(ctx, req.GroupID, nil, nil)
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}

	sreq := series.Request{Target: domain.NormalizeCode(req.Currency)}
	if req.CountedOnly {
		sreq.Filter = domain.Counted
	}
	sr, err := s.series.Build(ctx, snaps, sreq)
	if err != nil {
		return fmt.Errorf("building series: %w", err)
	}

	sheets := map[string][][]any{
		SeriesSheet: buildSeriesRows(sr),
		AssetsSheet: buildAssetRows(sr),
	}
	if err := s.writer.Write(ctx, sheets); err != nil {
		return err
	}

	slog.Info("export completed", "group", req.GroupID, "currency", sr.Currency, "points", len(sr.Points))
	return nil
}
