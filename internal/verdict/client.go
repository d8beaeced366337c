// Package verdict synthesizes the final verdict by handing pipeline
// artifacts to an external chat-completion reasoning service and validating
// its structured response.
package verdict

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/veritaslabs/veritas/internal/claims"
)

// Config controls the reasoning service client.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// completionAPI is the slice of the OpenAI client the synthesizer uses.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client calls the reasoning service and validates its verdict.
type Client struct {
	cfg Config
	api completionAPI
	log *zap.Logger
}

// New builds a Client.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("reasoning api key is required")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg,
		api: openai.NewClientWithConfig(clientConfig),
		log: log,
	}, nil
}

const systemPrompt = "You are a rigorous fact-verification analyst. You weigh " +
	"linguistic analysis and researched evidence, and you answer only with the " +
	"requested JSON object."

// Synthesize asks the reasoning service for a verdict over the claim and its
// pipeline artifacts, then parses and validates the response.
func (c *Client) Synthesize(ctx context.Context, claim string, analysis claims.ClaimAnalysis, research claims.ResearchReport) (claims.Verdict, error) {
	prompt, err := buildPrompt(claim, analysis, research)
	if err != nil {
		return claims.Verdict{}, err
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return claims.Verdict{}, fmt.Errorf("reasoning service: %w", err)
	}
	if len(resp.Choices) == 0 {
		return claims.Verdict{}, fmt.Errorf("reasoning service returned no choices")
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return claims.Verdict{}, err
	}

	c.log.Info("verdict synthesized",
		zap.String("verdict", verdict.Verdict),
		zap.Int("confidence", verdict.Confidence))
	return verdict, nil
}

func buildPrompt(claim string, analysis claims.ClaimAnalysis, research claims.ResearchReport) (string, error) {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return "", fmt.Errorf("encode analysis: %w", err)
	}
	researchJSON, err := json.Marshal(research)
	if err != nil {
		return "", fmt.Errorf("encode research: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ORIGINAL CLAIM: %q\n\n", claim)
	b.WriteString("Decide whether this claim is REAL, FAKE, or UNVERIFIED based on the claim analysis and research findings below.\n\n")
	fmt.Fprintf(&b, "CLAIM ANALYSIS:\n%s\n\n", analysisJSON)
	fmt.Fprintf(&b, "RESEARCH FINDINGS:\n%s\n\n", researchJSON)
	b.WriteString("DECISION LOGIC:\n")
	b.WriteString("- UNVERIFIED if research status is INSUFFICIENT_ENTITIES or RESEARCH_FAILED, if no sources were scraped, or if evidence is contradictory or inconclusive.\n")
	b.WriteString("- FAKE if sources directly contradict the claim, or fact-checkers debunk it, or sensationalism > 70 with entity quality < 50.\n")
	b.WriteString("- REAL if multiple credible sources confirm the claim.\n\n")
	b.WriteString("Return ONLY a JSON object (no markdown, no extra text):\n")
	b.WriteString(`{"verdict":"REAL"|"FAKE"|"UNVERIFIED","confidence":0-100,"reasoning":"2-3 sentences","sources_analyzed":{"supporting":[],"contradicting":[],"inconclusive":[]},"key_factors":{"entity_quality":0,"sensationalism":0,"sources_count":0}}`)
	b.WriteString("\n\nRULES:\n")
	b.WriteString("1. Output only the JSON object.\n")
	b.WriteString("2. Categorize every researched URL into supporting/contradicting/inconclusive.\n")
	b.WriteString("3. Base the verdict on evidence, not the sensationalism score alone.\n")
	b.WriteString("4. If research failed or was insufficient, the verdict must be UNVERIFIED with confidence below 30.\n")
	return b.String(), nil
}

// parseVerdict decodes and validates the model output. Models occasionally
// wrap JSON in a markdown fence despite instructions, so that is tolerated.
func parseVerdict(raw string) (claims.Verdict, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var v claims.Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return claims.Verdict{}, fmt.Errorf("decode verdict: %w", err)
	}

	switch v.Verdict {
	case claims.VerdictReal, claims.VerdictFake, claims.VerdictUnverified:
	default:
		return claims.Verdict{}, fmt.Errorf("invalid verdict label %q", v.Verdict)
	}

	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 100 {
		v.Confidence = 100
	}
	if v.SourcesAnalyzed.Supporting == nil {
		v.SourcesAnalyzed.Supporting = []string{}
	}
	if v.SourcesAnalyzed.Contradicting == nil {
		v.SourcesAnalyzed.Contradicting = []string{}
	}
	if v.SourcesAnalyzed.Inconclusive == nil {
		v.SourcesAnalyzed.Inconclusive = []string{}
	}
	return v, nil
}
