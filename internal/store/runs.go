package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bibliojobs/sift/internal/dedup"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// BeginRun records the start of an engine invocation and returns the row
// with its assigned ids.
func (s *Store) BeginRun(ctx context.Context, inputFile string, opts dedup.Options, inputRows int) (*DedupRun, error) {
	run := &DedupRun{
		RunUUID:        uuid.NewString(),
		InputFile:      inputFile,
		Status:         StatusRunning,
		MatchThreshold: opts.MatchThreshold,
		MinSimilarity:  opts.MinSimilarity,
		KNeighbors:     opts.KNeighbors,
		InputRows:      inputRows,
		StartedAt:      time.Now().UTC(),
	}
	if err := s.gdb.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("insert dedup run: %w", err)
	}
	return run, nil
}

// FinishRun closes a run with its result counts and stores the removal audit
// trail in the same transaction.
func (s *Store) FinishRun(ctx context.Context, runID int64, result *dedup.Result) error {
	now := time.Now().UTC()
	return s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":        StatusFinished,
			"survivor_rows": len(result.Survivors),
			"removed_rows":  len(result.Removed),
			"clusters":      len(result.Clusters),
			"finished_at":   now,
		}
		res := tx.Model(&DedupRun{}).Where("run_id = ?", runID).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update dedup run %d: %w", runID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if len(result.Removed) == 0 {
			return nil
		}
		removals := make([]RunRemoval, len(result.Removed))
		for i, removal := range result.Removed {
			removals[i] = RunRemoval{
				RunID:          runID,
				RecordIndex:    removal.RecordID,
				ClusterID:      removal.ClusterID,
				MatchedAgainst: joinIndexes(removal.MatchedAgainst),
				Reason:         removal.Reason,
			}
		}
		if err := tx.CreateInBatches(removals, 500).Error; err != nil {
			return fmt.Errorf("insert removals for run %d: %w", runID, err)
		}
		return nil
	})
}

// FailRun marks a run as failed with the error message.
func (s *Store) FailRun(ctx context.Context, runID int64, cause error) error {
	now := time.Now().UTC()
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	res := s.gdb.WithContext(ctx).Model(&DedupRun{}).Where("run_id = ?", runID).Updates(map[string]any{
		"status":        StatusFailed,
		"error_message": message,
		"finished_at":   now,
	})
	if res.Error != nil {
		return fmt.Errorf("mark run %d failed: %w", runID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]DedupRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []DedupRun
	err := s.gdb.WithContext(ctx).
		Order("run_id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list dedup runs: %w", err)
	}
	return runs, nil
}

// GetRun loads one run by its public UUID.
func (s *Store) GetRun(ctx context.Context, runUUID string) (*DedupRun, error) {
	var run DedupRun
	err := s.gdb.WithContext(ctx).Where("run_uuid = ?", runUUID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load run %s: %w", runUUID, err)
	}
	return &run, nil
}

func joinIndexes(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// ListRemovals returns the audit trail of a run ordered by record index.
func (s *Store) ListRemovals(ctx context.Context, runID int64) ([]RunRemoval, error) {
	var removals []RunRemoval
	err := s.gdb.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("record_index ASC").
		Find(&removals).Error
	if err != nil {
		return nil, fmt.Errorf("list removals for run %d: %w", runID, err)
	}
	return removals, nil
}
