package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clae-hq/admissions-api/internal/models"
	"github.com/clae-hq/admissions-api/internal/repository"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
)

type trackingApplicationRepository interface {
	FindByTrackingCode(ctx context.Context, code string) (*models.Application, error)
	FindLatestByParentPhone(ctx context.Context, phone string) (*models.Application, error)
	CountActiveBefore(ctx context.Context, before time.Time) (int, error)
	CountActive(ctx context.Context) (int, error)
}

type trackingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type queueStats struct {
	Position int `json:"position"`
	Total    int `json:"total"`
}

// TrackingService answers public status lookups by tracking code or parent
// phone number. Queue estimates are cached briefly since they are scanned by
// parents far more often than they change.
type TrackingService struct {
	repo   trackingApplicationRepository
	cache  trackingCache
	logger *zap.Logger
	ttl    time.Duration
}

// NewTrackingService constructs a TrackingService instance.
func NewTrackingService(repo trackingApplicationRepository, cache trackingCache, logger *zap.Logger, statsTTL time.Duration) *TrackingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if statsTTL <= 0 {
		statsTTL = 30 * time.Second
	}
	return &TrackingService{repo: repo, cache: cache, logger: logger, ttl: statsTTL}
}

// Lookup resolves a tracking code or phone number to the public status view.
// The query is tried as an exact tracking code first; when no code matches it
// falls back to the most recent application filed under that parent phone.
func (s *TrackingService) Lookup(ctx context.Context, query string) (*models.TrackingResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "query is required")
	}

	app, err := s.repo.FindByTrackingCode(ctx, strings.ToUpper(query))
	if errors.Is(err, sql.ErrNoRows) {
		app, err = s.repo.FindLatestByParentPhone(ctx, query)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no application found for that code or phone number")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up application")
	}

	result := &models.TrackingResult{
		StudentName:  app.StudentName,
		Status:       app.Status,
		TrackingCode: app.TrackingCode,
		CreatedAt:    app.CreatedAt,
	}

	stats, err := s.queueStats(ctx, app)
	if err != nil {
		// lookup still succeeds without queue numbers
		s.logger.Warn("failed to compute queue stats", zap.String("application_id", app.ID), zap.Error(err))
		return result, nil
	}
	result.Position = stats.Position
	result.Total = stats.Total
	return result, nil
}

func (s *TrackingService) queueStats(ctx context.Context, app *models.Application) (queueStats, error) {
	active := false
	for _, st := range models.ActiveStatuses {
		if app.Status == st {
			active = true
			break
		}
	}
	if !active {
		return queueStats{}, nil
	}

	key := fmt.Sprintf("tracking:queue:%s", app.ID)
	var stats queueStats
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &stats); err == nil {
			return stats, nil
		} else if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("queue stats cache read failed", zap.Error(err))
		}
	}

	ahead, err := s.repo.CountActiveBefore(ctx, app.CreatedAt)
	if err != nil {
		return queueStats{}, err
	}
	total, err := s.repo.CountActive(ctx)
	if err != nil {
		return queueStats{}, err
	}
	stats = queueStats{Position: ahead + 1, Total: total}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, stats, s.ttl); err != nil {
			s.logger.Warn("queue stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}
