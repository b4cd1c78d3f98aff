// Package group manages asset groups. Every asset belongs to exactly one
// group and snapshots are taken per group.
package group

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrInvalid indicates a group request that fails validation.
var ErrInvalid = errors.New("invalid group")

// Service validates and stores asset groups.
type Service struct {
	repo Repository
}

// NewService creates a new group Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every group, oldest first.
func (s *Service) List(ctx context.Context) ([]Group, error) {
	return s.repo.List(ctx)
}

// Default returns the default group.
func (s *Service) Default(ctx context.Context) (Group, error) {
	return s.repo.Default(ctx)
}

// Resolve maps a requested group id to a stored one. Zero selects the
// default group; any other id must exist.
func (s *Service) Resolve(ctx context.Context, id int64) (int64, error) {
	if id < 0 {
		return 0, fmt.Errorf("%w: id must be positive", ErrInvalid)
	}
	if id == 0 {
		g, err := s.repo.Default(ctx)
		if err != nil {
			return 0, err
		}
		return g.ID, nil
	}
	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return g.ID, nil
}

// Create stores a new, non-default group.
func (s *Service) Create(ctx context.Context, name string) (Group, error) {
	name, err := cleanName(name)
	if err != nil {
		return Group{}, err
	}
	g, err := s.repo.Create(ctx, name)
	if err != nil {
		return Group{}, err
	}
	slog.Info("group created", "id", g.ID, "name", g.Name)
	return g, nil
}

// Rename changes a group's name.
func (s *Service) Rename(ctx context.Context, id int64, name string) (Group, error) {
	name, err := cleanName(name)
	if err != nil {
		return Group{}, err
	}
	return s.repo.Rename(ctx, id, name)
}

// Delete removes a group. The default group cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if g.IsDefault {
		return fmt.Errorf("%w: cannot delete the default group", ErrInvalid)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("group deleted", "id", id)
	return nil
}

// SetDefault makes id the default group.
func (s *Service) SetDefault(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalid)
	}
	if err := s.repo.SetDefault(ctx, id); err != nil {
		return err
	}
	slog.Info("default group changed", "id", id)
	return nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalid)
	}
	return name, nil
}
