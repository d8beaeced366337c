package claims

import "time"

// JobState represents the lifecycle state of a verification job.
type JobState string

// Job states persisted in the job store. Transitions are monotonic:
// QUEUED -> RUNNING -> {COMPLETED, FAILED}; terminal states are sinks.
const (
	StateQueued    JobState = "QUEUED"
	StateRunning   JobState = "RUNNING"
	StateCompleted JobState = "COMPLETED"
	StateFailed    JobState = "FAILED"
)

// Terminal reports whether the state is a sink.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Stage labels recorded in the status record as the job advances.
const (
	StagePending  = "PENDING"
	StageClaim    = "claim_agent"
	StageResearch = "researcher_agent"
	StageVerdict  = "verdict_agent"
	StageFinished = "FINISHED"
	StageError    = "ERROR"
)

// StatusSnapshot is the pollable view of a job's progress.
type StatusSnapshot struct {
	State        JobState `json:"state"`
	CurrentStage string   `json:"current_stage"`
}

// Entity is a named, typed span extracted from the claim text.
type Entity struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	StartChar  int     `json:"start_char"`
	EndChar    int     `json:"end_char"`
}

// GrammaticalMetrics carries the raw counts behind the sensationalism score.
// They are surfaced in the claim-analysis artifact for observability.
type GrammaticalMetrics struct {
	TokenCount        int     `json:"token_count"`
	SentenceCount     int     `json:"sentence_count"`
	IntensifierCount  int     `json:"intensifier_count"`
	EmotionalAdjCount int     `json:"emotional_adj_count"`
	SensationalVerbs  int     `json:"sensational_verb_count"`
	HedgingCount      int     `json:"hedging_count"`
	ExclamationCount  int     `json:"exclamation_count"`
	QuestionCount     int     `json:"question_count"`
	QuoteCount        int     `json:"quote_count"`
	CapsLockWords     int     `json:"caps_lock_words"`
	ImperativeCount   int     `json:"imperative_count"`
	FragmentCount     int     `json:"fragment_count"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
}

// ClaimAnalysis is the artifact produced by the linguistic analysis stage.
// The pipeline always produces one: on analyzer failure the fields are
// zero-valued and Error is populated.
type ClaimAnalysis struct {
	Entities           []Entity           `json:"entities"`
	EntityCount        int                `json:"entity_count"`
	EntityQualityScore int                `json:"entity_quality_score"`
	Sensationalism     int                `json:"sensationalism_score"`
	Metrics            GrammaticalMetrics `json:"grammatical_metrics"`
	Analysis           string             `json:"analysis"`
	Warning            string             `json:"warning,omitempty"`
	Error              string             `json:"error,omitempty"`
}

// Warning codes emitted by the claim analyzer, at most one per claim.
const (
	WarningNoEntities     = "NO_ENTITIES"
	WarningLowQuality     = "LOW_ENTITY_QUALITY"
	WarningLowConfidence  = "LOW_CONFIDENCE_ENTITIES"
	MinEntityQualityScore = 30
)

// SearchResult is one hit returned by the external search API.
type SearchResult struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Source   string `json:"source"`
	Snippet  string `json:"snippet"`
	Date     string `json:"date"`
}

// ExtractionResult is the content extractor's output for one URL. Exactly one
// of {Content non-empty and ScrapedSuccessfully} or {Content empty and not
// ScrapedSuccessfully} holds.
type ExtractionResult struct {
	URL                 string    `json:"url"`
	ScrapedSuccessfully bool      `json:"scraped_successfully"`
	Title               string    `json:"title,omitempty"`
	Content             string    `json:"content,omitempty"`
	Source              string    `json:"source,omitempty"`
	Author              string    `json:"author,omitempty"`
	Date                string    `json:"date,omitempty"`
	Method              string    `json:"method,omitempty"`
	Length              int       `json:"length"`
	Error               string    `json:"error,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

// Research stage status values. These are explicit gating outcomes, not
// errors; the verdict stage interprets them.
const (
	ResearchOK           = "OK"
	ResearchInsufficient = "INSUFFICIENT_ENTITIES"
	ResearchFailed       = "RESEARCH_FAILED"
)

// ResearchReport is the artifact produced by the evidence research stage.
type ResearchReport struct {
	Status   string             `json:"status"`
	Query    string             `json:"query,omitempty"`
	Results  []SearchResult     `json:"results,omitempty"`
	Sources  []ExtractionResult `json:"sources,omitempty"`
	Warning  string             `json:"warning,omitempty"`
	Scraped  int                `json:"scraped"`
	Searched int                `json:"searched"`
}

// Verdict label values the reasoning service may return.
const (
	VerdictReal       = "REAL"
	VerdictFake       = "FAKE"
	VerdictUnverified = "UNVERIFIED"
)

// SourceBreakdown categorizes researched URLs by how they relate to the claim.
type SourceBreakdown struct {
	Supporting    []string `json:"supporting"`
	Contradicting []string `json:"contradicting"`
	Inconclusive  []string `json:"inconclusive"`
}

// KeyFactors echoes the pipeline signals the verdict was based on.
type KeyFactors struct {
	EntityQuality  int `json:"entity_quality"`
	Sensationalism int `json:"sensationalism"`
	SourcesCount   int `json:"sources_count"`
}

// Verdict is the structured result synthesized by the reasoning service and
// validated by the pipeline before storage.
type Verdict struct {
	Verdict         string          `json:"verdict"`
	Confidence      int             `json:"confidence"`
	Reasoning       string          `json:"reasoning"`
	SourcesAnalyzed SourceBreakdown `json:"sources_analyzed"`
	KeyFactors      KeyFactors      `json:"key_factors"`
}

// QueueItem wraps a claim ready for pipeline execution.
type QueueItem struct {
	JobID     string
	Claim     string
	Submitted int64
}
