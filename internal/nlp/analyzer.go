package nlp

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/veritaslabs/veritas/internal/claims"
)

// Analyzer produces a ClaimAnalysis for raw claim text. It never returns an
// error: every failure mode degrades to a zero-valued artifact with the Error
// field set, so the pipeline always has something to record.
type Analyzer struct {
	tagger Tagger
	log    *zap.Logger
}

// NewAnalyzer builds an Analyzer around the given tagger.
func NewAnalyzer(tagger Tagger, log *zap.Logger) *Analyzer {
	return &Analyzer{tagger: tagger, log: log}
}

// Analyze runs entity extraction and sensationalism scoring over the claim.
func (a *Analyzer) Analyze(claim string) (result claims.ClaimAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("claim analysis panicked", zap.Any("panic", r))
			result = claims.ClaimAnalysis{
				Entities: []claims.Entity{},
				Analysis: "Critical analysis error",
				Error:    fmt.Sprintf("analysis failed: %v", r),
			}
		}
	}()

	if strings.TrimSpace(claim) == "" {
		a.log.Warn("empty claim provided to analyzer")
		return claims.ClaimAnalysis{
			Entities: []claims.Entity{},
			Analysis: "No text to analyze",
			Warning:  claims.WarningNoEntities,
			Error:    "no text provided",
		}
	}

	parsed, err := a.tagger.Parse(claim)
	if err != nil {
		a.log.Error("tagger failed", zap.Error(err))
		return claims.ClaimAnalysis{
			Entities: []claims.Entity{},
			Analysis: "Linguistic model unavailable",
			Error:    fmt.Sprintf("parse failed: %v", err),
		}
	}

	entities, quality := extractEntities(parsed)
	metrics := computeMetrics(parsed)
	score, analysis := scoreSensationalism(metrics)

	result = claims.ClaimAnalysis{
		Entities:           entities,
		EntityCount:        len(entities),
		EntityQualityScore: quality,
		Sensationalism:     score,
		Metrics:            metrics,
		Analysis:           analysis,
		Warning:            entityWarning(entities, quality),
	}

	a.log.Info("claim analyzed",
		zap.Int("entities", len(entities)),
		zap.Int("entity_quality", quality),
		zap.Int("sensationalism", score))
	if result.Warning != "" {
		a.log.Warn("entity quality warning", zap.String("warning", result.Warning))
	}

	return result
}
