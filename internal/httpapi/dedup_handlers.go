package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bibliojobs/sift/internal/dedup"
	"github.com/bibliojobs/sift/internal/record"
	"github.com/bibliojobs/sift/internal/store"
	payloadschema "github.com/bibliojobs/sift/schema"
)

type removalItem struct {
	Record         int    `json:"record"`
	ClusterID      int    `json:"cluster_id"`
	MatchedAgainst []int  `json:"matched_against"`
	Reason         string `json:"reason"`
}

// storedRemovalItem mirrors the persisted audit rows where the matched
// record list is kept as text.
type storedRemovalItem struct {
	Record         int    `json:"record"`
	ClusterID      int    `json:"cluster_id"`
	MatchedAgainst string `json:"matched_against"`
	Reason         string `json:"reason"`
}

type clusterItem struct {
	ClusterID int   `json:"cluster_id"`
	Members   []int `json:"members"`
	Survivor  int   `json:"survivor"`
}

type dedupResponse struct {
	RunUUID      string              `json:"run_uuid,omitempty"`
	InputRows    int                 `json:"input_rows"`
	SurvivorRows int                 `json:"survivor_rows"`
	RemovedRows  int                 `json:"removed_rows"`
	Survivors    []map[string]string `json:"survivors"`
	Removed      []removalItem       `json:"removed"`
	Clusters     []clusterItem       `json:"clusters"`
}

type runListItem struct {
	RunUUID      string     `json:"run_uuid"`
	InputFile    string     `json:"input_file,omitempty"`
	Status       string     `json:"status"`
	InputRows    int        `json:"input_rows"`
	SurvivorRows int        `json:"survivor_rows"`
	RemovedRows  int        `json:"removed_rows"`
	Clusters     int        `json:"clusters"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

func (s *Server) handleDedup(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRequestBodyBytes))
	if err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	request, err := payloadschema.ValidateDedupRequest(json.RawMessage(body))
	if err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	opts := s.opts.EngineOptions
	if request.Options != nil {
		if request.Options.MatchThreshold != nil {
			opts.MatchThreshold = *request.Options.MatchThreshold
		}
		if request.Options.MinSimilarity != nil {
			opts.MinSimilarity = *request.Options.MinSimilarity
		}
		if request.Options.KNeighbors != nil {
			opts.KNeighbors = *request.Options.KNeighbors
		}
	}

	engine, err := dedup.NewEngine(opts, s.logger)
	if err != nil {
		return failValidation(c, map[string]string{"options": err.Error()})
	}

	records := make([]record.Record, len(request.Records))
	for i, fields := range request.Records {
		records[i] = record.New(i, fields)
	}

	var run *store.DedupRun
	if s.runs != nil {
		run, err = s.runs.BeginRun(c.Request().Context(), "api", opts, len(records))
		if err != nil {
			s.logger.Error().Err(err).Msg("begin run failed")
		}
	}

	result, err := engine.Run(c.Request().Context(), records)
	if err != nil {
		if run != nil {
			if failErr := s.runs.FailRun(c.Request().Context(), run.RunID, err); failErr != nil {
				s.logger.Error().Err(failErr).Msg("mark run failed")
			}
		}

		var shapeErr *dedup.InputShapeError
		if errors.As(err, &shapeErr) {
			return fail(c, http.StatusUnprocessableEntity, err.Error(), nil)
		}
		var configErr *dedup.ConfigurationError
		if errors.As(err, &configErr) {
			return failValidation(c, map[string]string{"options": err.Error()})
		}
		s.logger.Error().Err(err).Msg("dedup run failed")
		return internalError(c, "Deduplication failed")
	}

	if run != nil {
		if err := s.runs.FinishRun(c.Request().Context(), run.RunID, result); err != nil {
			s.logger.Error().Err(err).Msg("finish run failed")
		}
	}

	return success(c, buildDedupResponse(run, result))
}

func buildDedupResponse(run *store.DedupRun, result *dedup.Result) dedupResponse {
	resp := dedupResponse{
		InputRows:    len(result.Survivors) + len(result.Removed),
		SurvivorRows: len(result.Survivors),
		RemovedRows:  len(result.Removed),
		Survivors:    make([]map[string]string, len(result.Survivors)),
		Removed:      make([]removalItem, len(result.Removed)),
		Clusters:     make([]clusterItem, len(result.Clusters)),
	}
	if run != nil {
		resp.RunUUID = run.RunUUID
	}

	for i, survivor := range result.Survivors {
		resp.Survivors[i] = survivor.Fields
	}
	for i, removal := range result.Removed {
		resp.Removed[i] = removalItem{
			Record:         removal.RecordID,
			ClusterID:      removal.ClusterID,
			MatchedAgainst: removal.MatchedAgainst,
			Reason:         removal.Reason,
		}
	}
	for i, cluster := range result.Clusters {
		resp.Clusters[i] = clusterItem{
			ClusterID: cluster.ID,
			Members:   cluster.Members,
			Survivor:  cluster.Survivor,
		}
	}
	return resp
}

func (s *Server) handleRuns(c echo.Context) error {
	if s.runs == nil {
		return failUnavailable(c, "Run persistence is not configured")
	}

	runs, err := s.runs.ListRuns(c.Request().Context(), 50)
	if err != nil {
		s.logger.Error().Err(err).Msg("list runs failed")
		return internalError(c, "Failed to load runs")
	}

	items := make([]runListItem, len(runs))
	for i, run := range runs {
		items[i] = buildRunListItem(run)
	}
	return success(c, map[string]any{"items": items})
}

func (s *Server) handleRunDetail(c echo.Context) error {
	if s.runs == nil {
		return failUnavailable(c, "Run persistence is not configured")
	}

	runUUID := c.Param("run_uuid")
	run, err := s.runs.GetRun(c.Request().Context(), runUUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failNotFound(c, "Run not found")
		}
		s.logger.Error().Err(err).Str("run_uuid", runUUID).Msg("load run failed")
		return internalError(c, "Failed to load run")
	}

	removals, err := s.runs.ListRemovals(c.Request().Context(), run.RunID)
	if err != nil {
		s.logger.Error().Err(err).Str("run_uuid", runUUID).Msg("load removals failed")
		return internalError(c, "Failed to load run")
	}

	items := make([]storedRemovalItem, len(removals))
	for i, removal := range removals {
		items[i] = storedRemovalItem{
			Record:         removal.RecordIndex,
			ClusterID:      removal.ClusterID,
			MatchedAgainst: removal.MatchedAgainst,
			Reason:         removal.Reason,
		}
	}

	return success(c, map[string]any{
		"run":      buildRunListItem(*run),
		"removals": items,
	})
}

func buildRunListItem(run store.DedupRun) runListItem {
	return runListItem{
		RunUUID:      run.RunUUID,
		InputFile:    run.InputFile,
		Status:       run.Status,
		InputRows:    run.InputRows,
		SurvivorRows: run.SurvivorRows,
		RemovedRows:  run.RemovedRows,
		Clusters:     run.Clusters,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
	}
}
