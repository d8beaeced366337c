package nlp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veritaslabs/veritas/internal/claims"
)

type stubTagger struct {
	parsed ParsedText
	err    error
}

func (s *stubTagger) Parse(string) (ParsedText, error) {
	return s.parsed, s.err
}

func parsedFrom(text string, tokens []Token, sentences []string, ents []Span) ParsedText {
	return ParsedText{Text: text, Sentences: sentences, Tokens: tokens, Entities: ents}
}

func TestAnalyzeEmptyClaim(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(&stubTagger{}, zap.NewNop())
	result := a.Analyze("   ")

	require.Empty(t, result.Entities)
	require.Zero(t, result.EntityQualityScore)
	require.Zero(t, result.Sensationalism)
	require.NotEmpty(t, result.Error)
}

func TestAnalyzeTaggerFailureDegrades(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(&stubTagger{err: errors.New("model load")}, zap.NewNop())
	result := a.Analyze("The senator voted against the bill on Tuesday.")

	require.Zero(t, result.Sensationalism)
	require.Contains(t, result.Error, "model load")
}

func TestEntityConfidenceWeights(t *testing.T) {
	t.Parallel()

	text := "Angela Merkel visited Berlin."
	parsed := parsedFrom(text,
		[]Token{
			{Text: "Angela", Tag: "NNP", Start: 0},
			{Text: "Merkel", Tag: "NNP", Start: 7},
			{Text: "visited", Tag: "VBD", Start: 14},
			{Text: "Berlin", Tag: "NNP", Start: 22},
		},
		[]string{text},
		[]Span{
			{Text: "Angela Merkel", Label: "PERSON", Start: 0, End: 13},
			{Text: "Berlin", Label: "GPE", Start: 22, End: 28},
		},
	)

	entities, quality := extractEntities(parsed)
	require.Len(t, entities, 2)

	// PERSON + two words + proper caps + adjacent verb
	require.Equal(t, "Angela Merkel", entities[0].Text)
	require.InDelta(t, 0.9, entities[0].Confidence, 0.001)

	// GPE + proper caps + adjacent verb
	require.Equal(t, "Berlin", entities[1].Text)
	require.InDelta(t, 0.7, entities[1].Confidence, 0.001)

	require.Greater(t, quality, 0)
}

func TestEntityDeduplicationAndShortSpans(t *testing.T) {
	t.Parallel()

	parsed := parsedFrom("NASA NASA X",
		nil,
		[]string{"NASA NASA X"},
		[]Span{
			{Text: "NASA", Label: "ORG", Start: 0, End: 4},
			{Text: "nasa", Label: "ORG", Start: 5, End: 9},
			{Text: "X", Label: "ORG", Start: 10, End: 11},
		},
	)

	entities, _ := extractEntities(parsed)
	require.Len(t, entities, 1)
}

func TestWarningPrecedence(t *testing.T) {
	t.Parallel()

	require.Equal(t, claims.WarningNoEntities, entityWarning(nil, 0))

	lowQuality := []claims.Entity{{Text: "tomorrow", Label: "DATE", Confidence: 0.3}}
	require.Equal(t, claims.WarningLowQuality, entityWarning(lowQuality, 10))

	oneConfident := []claims.Entity{
		{Text: "NASA", Label: "ORG", Confidence: 0.6},
		{Text: "tomorrow", Label: "DATE", Confidence: 0.3},
	}
	require.Equal(t, claims.WarningLowConfidence, entityWarning(oneConfident, 50))

	twoConfident := []claims.Entity{
		{Text: "NASA", Label: "ORG", Confidence: 0.6},
		{Text: "Congress", Label: "ORG", Confidence: 0.6},
	}
	require.Empty(t, entityWarning(twoConfident, 50))
}

func TestSensationalismHighSignal(t *testing.T) {
	t.Parallel()

	text := `Aliens built the pyramids, scientists SHOCKED!!!`
	parsed := parsedFrom(text,
		[]Token{
			{Text: "Aliens", Tag: "NNS", Start: 0, Sentence: 0},
			{Text: "built", Tag: "VBD", Start: 7, Sentence: 0},
			{Text: "the", Tag: "DT", Start: 13, Sentence: 0},
			{Text: "pyramids", Tag: "NNS", Start: 17, Sentence: 0},
			{Text: "scientists", Tag: "NNS", Start: 27, Sentence: 0},
			{Text: "SHOCKED", Tag: "JJ", Start: 38, Sentence: 0},
		},
		[]string{text},
		nil,
	)

	m := computeMetrics(parsed)
	require.Equal(t, 3, m.ExclamationCount)
	require.Equal(t, 1, m.CapsLockWords)
	require.Equal(t, 1, m.EmotionalAdjCount)

	score, analysis := scoreSensationalism(m)
	require.Greater(t, score, 30)
	require.Contains(t, analysis, "Key indicators")
}

func TestSensationalismNeutralText(t *testing.T) {
	t.Parallel()

	text := "The committee published its quarterly report on economic indicators and employment figures for the region yesterday afternoon."
	tokens := make([]Token, 0)
	start := 0
	for _, w := range []string{"The", "committee", "published", "its", "quarterly", "report", "on", "economic", "indicators", "and", "employment", "figures", "for", "the", "region", "yesterday", "afternoon"} {
		tag := "NN"
		if w == "published" {
			tag = "VBD"
		}
		tokens = append(tokens, Token{Text: w, Tag: tag, Start: start, Sentence: 0})
		start += len(w) + 1
	}
	parsed := parsedFrom(text, tokens, []string{text}, nil)

	score, analysis := scoreSensationalism(computeMetrics(parsed))
	require.Less(t, score, 25)
	require.Contains(t, analysis, "Neutral")
}

func TestSensationalismHedgingReduces(t *testing.T) {
	t.Parallel()

	m := claims.GrammaticalMetrics{
		TokenCount:        20,
		SentenceCount:     1,
		AvgSentenceLength: 20,
		HedgingCount:      3,
		ExclamationCount:  1,
	}
	score, _ := scoreSensationalism(m)

	noHedge := m
	noHedge.HedgingCount = 0
	higher, _ := scoreSensationalism(noHedge)

	require.Less(t, score, higher)
}

func TestSensationalismClampedOnPathologicalInput(t *testing.T) {
	t.Parallel()

	m := claims.GrammaticalMetrics{
		TokenCount:       1,
		SentenceCount:    1,
		ExclamationCount: 500,
		CapsLockWords:    500,
		IntensifierCount: 500,
		SensationalVerbs: 500,
		ImperativeCount:  500,
		FragmentCount:    500,
	}
	score, _ := scoreSensationalism(m)
	require.LessOrEqual(t, score, 100)
	require.GreaterOrEqual(t, score, 0)
}

func TestStemMatching(t *testing.T) {
	t.Parallel()

	require.True(t, sensationalVerbs.contains("claims"))
	require.True(t, sensationalVerbs.contains("claimed"))
	require.True(t, sensationalVerbs.contains("stunned"))
	require.True(t, sensationalVerbs.contains("slamming"))
	require.True(t, sensationalVerbs.contains("declared"))
	require.True(t, intensifiers.contains("shocked"))
	require.False(t, sensationalVerbs.contains("walked"))
}
