// Package pipeline drives a verification job through its ordered stages:
// claim analysis, evidence research, and verdict synthesis. Exactly one
// worker owns a job from dequeue to its terminal state.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/veritaslabs/veritas/internal/claims"
	"github.com/veritaslabs/veritas/internal/metrics"
	"github.com/veritaslabs/veritas/internal/progress"
	"github.com/veritaslabs/veritas/internal/store"
)

const (
	maxQueryEntities = 3
	maxScrapes       = 2
	maxQueryChars    = 500
)

// Worker executes one job at a time against the stage sequence.
type Worker struct {
	store     store.JobStore
	analyzer  claims.Analyzer
	search    claims.SearchClient
	extractor claims.Extractor
	reasoner  claims.ReasoningClient
	emitter   progress.Emitter
	clock     claims.Clock
	log       *zap.Logger
}

// NewWorker wires a Worker's collaborators.
func NewWorker(
	jobStore store.JobStore,
	analyzer claims.Analyzer,
	search claims.SearchClient,
	extractor claims.Extractor,
	reasoner claims.ReasoningClient,
	emitter progress.Emitter,
	clock claims.Clock,
	log *zap.Logger,
) *Worker {
	return &Worker{
		store:     jobStore,
		analyzer:  analyzer,
		search:    search,
		extractor: extractor,
		reasoner:  reasoner,
		emitter:   emitter,
		clock:     clock,
		log:       log,
	}
}

// Run processes one job to a terminal state. Any panic escaping a stage is
// caught here and converted into a FAILED job; Run itself never panics.
func (w *Worker) Run(ctx context.Context, item claims.QueueItem) {
	log := w.log.With(zap.String("job_id", item.JobID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panicked", zap.Any("panic", r))
			w.fail(ctx, item.JobID, fmt.Sprintf("pipeline error: %v", r))
		}
	}()

	w.setStatus(ctx, item.JobID, claims.StateRunning, claims.StageClaim)
	w.record(ctx, progress.Event{
		JobID:   item.JobID,
		TS:      w.clock.Now(),
		Source:  progress.SourcePipeline,
		Type:    progress.TypeStart,
		Message: "verification pipeline started",
	})

	analysis := w.analyzeStage(ctx, item)

	w.setStatus(ctx, item.JobID, claims.StateRunning, claims.StageResearch)
	research := w.researchStage(ctx, item, analysis)

	w.setStatus(ctx, item.JobID, claims.StateRunning, claims.StageVerdict)
	verdict, err := w.verdictStage(ctx, item, analysis, research)
	if err != nil {
		log.Error("verdict stage failed", zap.Error(err))
		w.fail(ctx, item.JobID, err.Error())
		return
	}

	payload, err := json.Marshal(verdict)
	if err != nil {
		w.fail(ctx, item.JobID, fmt.Sprintf("encode result: %v", err))
		return
	}
	if err := w.store.SetResult(ctx, item.JobID, payload); err != nil {
		log.Error("store result failed", zap.Error(err))
		w.fail(ctx, item.JobID, fmt.Sprintf("store result: %v", err))
		return
	}

	w.record(ctx, progress.Event{
		JobID:   item.JobID,
		TS:      w.clock.Now(),
		Source:  progress.SourcePipeline,
		Type:    progress.TypeEnd,
		Message: "verification pipeline completed",
		Meta:    map[string]string{"verdict": verdict.Verdict},
	})
	w.setStatus(ctx, item.JobID, claims.StateCompleted, claims.StageFinished)
	metrics.ObserveJob(string(claims.StateCompleted))
	log.Info("job completed", zap.String("verdict", verdict.Verdict), zap.Int("confidence", verdict.Confidence))
}

func (w *Worker) analyzeStage(ctx context.Context, item claims.QueueItem) claims.ClaimAnalysis {
	w.record(ctx, progress.Event{
		JobID:   item.JobID,
		TS:      w.clock.Now(),
		Source:  progress.SourceClaim,
		Type:    progress.TypeStart,
		Message: "claim analysis started",
	})
	w.record(ctx, progress.Event{
		JobID:   item.JobID,
		TS:      w.clock.Now(),
		Source:  progress.SourceNLP,
		Type:    progress.TypeToolCall,
		Message: "running entity extraction and sensationalism scoring",
	})

	analysis := w.analyzer.Analyze(item.Claim)
	metrics.ObserveClaimAnalyzed()

	meta := map[string]string{
		"entity_count":   fmt.Sprintf("%d", analysis.EntityCount),
		"entity_quality": fmt.Sprintf("%d", analysis.EntityQualityScore),
		"sensationalism": fmt.Sprintf("%d", analysis.Sensationalism),
	}
	if analysis.Warning != "" {
		meta["warning"] = analysis.Warning
	}
	w.record(ctx, progress.Event{
		JobID:   item.JobID,
		TS:      w.clock.Now(),
		Source:  progress.SourceNLP,
		Type:    progress.TypeEnd,
		Message: "linguistic analysis completed",
		Meta:    meta,
	})
	w.record(ctx, progress.Event{
		JobID:   item.JobID,
		TS:      w.clock.Now(),
		Source:  progress.SourceClaim,
		Type:    progress.TypeEnd,
		Message: "claim analysis finished",
	})
	return analysis
}

func (w *Worker) researchStage(ctx context.Context, item claims.QueueItem, analysis claims.ClaimAnalysis) claims.ResearchReport {
	if analysis.EntityCount == 0 || analysis.EntityQualityScore < claims.MinEntityQualityScore {
		w.record(ctx, progress.Event{
			JobID:   item.JobID,
			TS:      w.clock.Now(),
			Source:  progress.SourceSearch,
			Type:    progress.TypeSystem,
			Message: "research skipped: insufficient entities for verification",
			Meta:    map[string]string{"entity_quality": fmt.Sprintf("%d", analysis.EntityQualityScore)},
		})
		return claims.ResearchReport{
			Status:  claims.ResearchInsufficient,
			Warning: analysis.Warning,
		}
	}

	query := buildQuery(item.Claim, analysis.Entities)
	w.record(ctx, progress.Event{
		JobID:   item.JobID,
		TS:      w.clock.Now(),
		Source:  progress.SourceSearch,
		Type:    progress.TypeToolCall,
		Message: "searching for evidence",
		Meta:    map[string]string{"query": query},
	})

	results, err := w.search.Search(ctx, query)
	if err != nil || len(results) == 0 {
		msg := "no search results"
		if err != nil {
			msg = err.Error()
		}
		w.record(ctx, progress.Event{
			JobID:   item.JobID,
			TS:      w.clock.Now(),
			Source:  progress.SourceSearch,
			Type:    progress.TypeFailed,
			Message: msg,
		})
		return claims.ResearchReport{Status: claims.ResearchFailed, Query: query}
	}

	report := claims.ResearchReport{
		Query:    query,
		Results:  results,
		Searched: len(results),
	}
	for _, result := range results {
		if report.Scraped >= maxScrapes {
			break
		}
		w.record(ctx, progress.Event{
			JobID:   item.JobID,
			TS:      w.clock.Now(),
			Source:  progress.SourceScraper,
			Type:    progress.TypeToolCall,
			Message: "extracting article content",
			Meta:    map[string]string{"url": result.Link},
		})

		extraction := w.extractor.Extract(ctx, result.Link)
		outcome := "failure"
		if extraction.ScrapedSuccessfully {
			outcome = "success"
			report.Scraped++
			report.Sources = append(report.Sources, extraction)
		}
		w.record(ctx, progress.Event{
			JobID:   item.JobID,
			TS:      w.clock.Now(),
			Source:  progress.SourceScraper,
			Type:    progress.TypeEnd,
			Message: "content extraction finished",
			Meta:    map[string]string{"url": result.Link, "outcome": outcome},
		})
	}

	if report.Scraped == 0 {
		report.Status = claims.ResearchFailed
		return report
	}
	report.Status = claims.ResearchOK
	return report
}

func (w *Worker) verdictStage(ctx context.Context, item claims.QueueItem, analysis claims.ClaimAnalysis, research claims.ResearchReport) (claims.Verdict, error) {
	w.record(ctx, progress.Event{
		JobID:   item.JobID,
		TS:      w.clock.Now(),
		Source:  progress.SourceVerdict,
		Type:    progress.TypeStart,
		Message: "synthesizing verdict",
		Meta:    map[string]string{"research_status": research.Status},
	})

	verdict, err := w.reasoner.Synthesize(ctx, item.Claim, analysis, research)
	if err != nil {
		return claims.Verdict{}, fmt.Errorf("verdict synthesis: %w", err)
	}

	w.record(ctx, progress.Event{
		JobID:   item.JobID,
		TS:      w.clock.Now(),
		Source:  progress.SourceVerdict,
		Type:    progress.TypeEnd,
		Message: "verdict ready",
		Meta:    map[string]string{"verdict": verdict.Verdict},
	})
	return verdict, nil
}

// buildQuery joins the most confident entities into a compact query, falling
// back to the raw claim when nothing clears the confidence bar.
func buildQuery(claim string, entities []claims.Entity) string {
	var parts []string
	for _, e := range entities {
		if e.Confidence <= 0.5 {
			continue
		}
		parts = append(parts, e.Text)
		if len(parts) >= maxQueryEntities {
			break
		}
	}
	query := strings.Join(parts, " ")
	if query == "" {
		query = claim
	}
	if len(query) > maxQueryChars {
		query = query[:maxQueryChars]
	}
	return query
}

// fail drives the job to its FAILED terminal state with an error payload.
func (w *Worker) fail(ctx context.Context, jobID, reason string) {
	w.record(ctx, progress.Event{
		JobID:   jobID,
		TS:      w.clock.Now(),
		Source:  progress.SourcePipeline,
		Type:    progress.TypeFailed,
		Message: reason,
	})

	payload, err := json.Marshal(map[string]string{"error": reason})
	if err != nil {
		payload = []byte(`{"error":"pipeline failure"}`)
	}
	if err := w.store.SetResult(ctx, jobID, payload); err != nil {
		w.log.Error("store failure payload", zap.String("job_id", jobID), zap.Error(err))
	}
	w.setStatus(ctx, jobID, claims.StateFailed, claims.StageError)
	metrics.ObserveJob(string(claims.StateFailed))
}

// record appends the event to the job's log synchronously, preserving causal
// order, then fans it out to the telemetry hub best-effort.
func (w *Worker) record(ctx context.Context, evt progress.Event) {
	if err := w.store.AppendEvent(ctx, evt.JobID, evt); err != nil {
		w.log.Warn("append event failed",
			zap.String("job_id", evt.JobID),
			zap.String("source", evt.Source),
			zap.Error(err))
	}
	if w.emitter != nil {
		w.emitter.Emit(evt)
	}
}

func (w *Worker) setStatus(ctx context.Context, jobID string, state claims.JobState, stage string) {
	if err := w.store.SetStatus(ctx, jobID, state, stage); err != nil {
		w.log.Warn("set status failed",
			zap.String("job_id", jobID),
			zap.String("state", string(state)),
			zap.Error(err))
	}
}
