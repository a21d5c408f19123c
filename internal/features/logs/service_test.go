package logs

import (
	"context"
	"testing"
	"time"

	common_models "go-chat/internal/common/models"
	"go-chat/internal/config"

	"go.uber.org/zap"
)

type memLogRepo struct {
	entries []common_models.Log
}

func (r *memLogRepo) Find(_ context.Context, query LogQuery) ([]common_models.Log, error) {
	var out []common_models.Log
	for _, e := range r.entries {
		if query.Actor != "" && e.ActorID != query.Actor {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memLogRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []common_models.Log
	var deleted int64
	for _, e := range r.entries {
		if e.CreatedOnUtc.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return deleted, nil
}

func TestSweepDropsOnlyExpiredEntries(t *testing.T) {
	now := time.Now()
	repo := &memLogRepo{entries: []common_models.Log{
		{Message: "old", CreatedOnUtc: now.AddDate(0, 0, -40)},
		{Message: "older", CreatedOnUtc: now.AddDate(0, 0, -31)},
		{Message: "fresh", CreatedOnUtc: now.AddDate(0, 0, -1)},
	}}
	cfg := &config.Config{LogMaxAgeDays: 30, LogRetention: "0 3 * * *"}
	service := NewLogService(repo, cfg, zap.NewNop())

	deleted, err := service.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if len(repo.entries) != 1 || repo.entries[0].Message != "fresh" {
		t.Errorf("unexpected survivors: %+v", repo.entries)
	}
}

func TestInitializeSchedulerRejectsBadSchedule(t *testing.T) {
	cfg := &config.Config{LogMaxAgeDays: 30, LogRetention: "not a schedule"}
	service := NewLogService(&memLogRepo{}, cfg, zap.NewNop())

	if err := service.InitializeScheduler(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
