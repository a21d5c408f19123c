package logs

import (
	"context"
	"fmt"
	"time"

	common_models "go-chat/internal/common/models"
	"go-chat/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const storeTimeout = 10 * time.Second

type LogService interface {
	Query(ctx context.Context, query LogQuery) ([]common_models.Log, error)

	// InitializeScheduler starts the retention sweep on the configured
	// schedule. StopScheduler drains it on shutdown.
	InitializeScheduler(ctx context.Context) error
	StopScheduler() error
	Sweep(ctx context.Context) (int64, error)
}

type LogServiceImpl struct {
	repo      LogRepository
	config    *config.Config
	log       *zap.Logger
	scheduler *cron.Cron
}

func NewLogService(repo LogRepository, cfg *config.Config, log *zap.Logger) LogService {
	return &LogServiceImpl{
		repo:   repo,
		config: cfg,
		log:    log,
	}
}

func (s *LogServiceImpl) Query(ctx context.Context, query LogQuery) ([]common_models.Log, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return s.repo.Find(ctx, query)
}

func (s *LogServiceImpl) InitializeScheduler(_ context.Context) error {
	if _, err := cron.ParseStandard(s.config.LogRetention); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.config.LogRetention, err)
	}

	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc(s.config.LogRetention, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		deleted, err := s.Sweep(ctx)
		if err != nil {
			s.log.Error("log retention sweep failed", zap.Error(err))
			return
		}
		if deleted > 0 {
			s.log.Info("log retention sweep", zap.Int64("deleted", deleted))
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.Start()
	return nil
}

func (s *LogServiceImpl) StopScheduler() error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	return nil
}

func (s *LogServiceImpl) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.config.LogMaxAgeDays)
	return s.repo.DeleteOlderThan(ctx, cutoff)
}
