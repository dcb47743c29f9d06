package store

import "time"

// Run statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// DedupRun maps sift.dedup_runs, one row per engine invocation.
type DedupRun struct {
	RunID          int64      `gorm:"column:run_id;primaryKey;autoIncrement"`
	RunUUID        string     `gorm:"column:run_uuid;type:uuid;not null;unique"`
	InputFile      string     `gorm:"column:input_file;type:text;not null;default:''"`
	Status         string     `gorm:"column:status;type:text;not null;default:running"`
	MatchThreshold float64    `gorm:"column:match_threshold;type:double precision;not null"`
	MinSimilarity  float64    `gorm:"column:min_similarity;type:double precision;not null"`
	KNeighbors     int        `gorm:"column:k_neighbors;type:integer;not null"`
	InputRows      int        `gorm:"column:input_rows;type:integer;not null;default:0"`
	SurvivorRows   int        `gorm:"column:survivor_rows;type:integer;not null;default:0"`
	RemovedRows    int        `gorm:"column:removed_rows;type:integer;not null;default:0"`
	Clusters       int        `gorm:"column:clusters;type:integer;not null;default:0"`
	ErrorMessage   *string    `gorm:"column:error_message;type:text"`
	StartedAt      time.Time  `gorm:"column:started_at;type:timestamptz;not null"`
	FinishedAt     *time.Time `gorm:"column:finished_at;type:timestamptz"`
	CreatedAt      time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (DedupRun) TableName() string { return "sift.dedup_runs" }

// RunRemoval maps sift.run_removals, the audit trail of one run.
type RunRemoval struct {
	RemovalID      int64     `gorm:"column:removal_id;primaryKey;autoIncrement"`
	RunID          int64     `gorm:"column:run_id;type:bigint;not null;index"`
	RecordIndex    int       `gorm:"column:record_index;type:integer;not null"`
	ClusterID      int       `gorm:"column:cluster_id;type:integer;not null"`
	MatchedAgainst string    `gorm:"column:matched_against;type:text;not null;default:''"`
	Reason         string    `gorm:"column:reason;type:text;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (RunRemoval) TableName() string { return "sift.run_removals" }

func autoMigrateModels() []any {
	return []any{
		&DedupRun{},
		&RunRemoval{},
	}
}
