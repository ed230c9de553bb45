package lender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"lora-lending/internal/infrastructure/monitoring"
	"lora-lending/internal/pkg/apperrors"
	"os"
)

type LenderService interface {
	ListLenders(ctx context.Context) ([]*Policy, error)

	GetLender(ctx context.Context, lenderID int64) (*Policy, error)

	RefreshCatalog(ctx context.Context) (int, error)
}

var _ LenderService = (*lenderService)(nil)

type lenderService struct {
	repo   Repository
	cache  Cache
	logger *slog.Logger
}

// NewLenderService builds the catalog service. cache may be nil, in which
// case every lookup goes to the repository.
func NewLenderService(repo Repository, cache Cache, logger *slog.Logger) LenderService {
	if repo == nil {
		panic("lender repository cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewLenderService, using default stderr handler")
	}
	return &lenderService{
		repo:   repo,
		cache:  cache,
		logger: logger.With(slog.String("component", "lenderService")),
	}
}

func (s *lenderService) ListLenders(ctx context.Context) ([]*Policy, error) {
	if s.cache != nil {
		policies, err := s.cache.GetAll(ctx)
		switch {
		case err == nil:
			monitoring.RecordCatalogLookup("hit")
			return policies, nil
		case errors.Is(err, ErrCacheMiss):
			monitoring.RecordCatalogLookup("miss")
		default:
			monitoring.RecordCatalogLookup("error")
			s.logger.WarnContext(ctx, "Lender cache read failed, falling back to repository", slog.Any("error", err))
		}
	}

	policies, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list lenders", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list lenders: %w", err)
	}
	policies = s.wellFormed(ctx, policies)

	if s.cache != nil {
		if err := s.cache.SetAll(ctx, policies); err != nil {
			s.logger.WarnContext(ctx, "Failed to populate lender cache", slog.Any("error", err))
		}
	}
	return policies, nil
}

func (s *lenderService) GetLender(ctx context.Context, lenderID int64) (*Policy, error) {
	if lenderID <= 0 {
		return nil, fmt.Errorf("%w: lender ID must be positive", apperrors.ErrInvalidArgument)
	}

	if s.cache != nil {
		if policies, err := s.cache.GetAll(ctx); err == nil {
			for _, p := range policies {
				if p.ID == lenderID {
					monitoring.RecordCatalogLookup("hit")
					return p, nil
				}
			}
		}
	}

	monitoring.RecordCatalogLookup("miss")
	policy, err := s.repo.FindByID(ctx, lenderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Lender not found", slog.Int64("lenderID", lenderID))
			return nil, fmt.Errorf("%w: lender %d not found", apperrors.ErrNotFound, lenderID)
		}
		s.logger.ErrorContext(ctx, "Failed to get lender", slog.Int64("lenderID", lenderID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to get lender %d: %w", lenderID, err)
	}
	if err := policy.Check(); err != nil {
		s.logger.WarnContext(ctx, "Lender policy is malformed", slog.Int64("lenderID", lenderID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: lender %d not found", apperrors.ErrNotFound, lenderID)
	}
	return policy, nil
}

// RefreshCatalog reloads the catalog from the repository into the cache and
// returns the number of lenders loaded.
func (s *lenderService) RefreshCatalog(ctx context.Context) (int, error) {
	policies, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load lender catalog", slog.Any("error", err))
		return 0, fmt.Errorf("failed to load lender catalog: %w", err)
	}

	valid := s.wellFormed(ctx, policies)

	if s.cache == nil {
		return len(valid), nil
	}
	if err := s.cache.SetAll(ctx, valid); err != nil {
		s.logger.ErrorContext(ctx, "Failed to write lender catalog to cache", slog.Any("error", err))
		return 0, fmt.Errorf("failed to cache lender catalog: %w", err)
	}
	s.logger.InfoContext(ctx, "Lender catalog refreshed", slog.Int("count", len(valid)))
	return len(valid), nil
}

// wellFormed drops policies that fail Check.
func (s *lenderService) wellFormed(ctx context.Context, policies []*Policy) []*Policy {
	valid := make([]*Policy, 0, len(policies))
	for _, p := range policies {
		if err := p.Check(); err != nil {
			s.logger.WarnContext(ctx, "Skipping malformed lender policy", slog.Int64("lenderID", p.ID), slog.Any("error", err))
			continue
		}
		valid = append(valid, p)
	}
	return valid
}
