package nlp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/veritaslabs/veritas/internal/claims"
)

// computeMetrics derives the grammatical counters behind the sensationalism
// score from the tagged token stream.
func computeMetrics(parsed ParsedText) claims.GrammaticalMetrics {
	m := claims.GrammaticalMetrics{
		SentenceCount: len(parsed.Sentences),
	}

	sentenceTokens := make([]int, len(parsed.Sentences))
	sentenceHasVerb := make([]bool, len(parsed.Sentences))
	sentenceFirst := make([]*Token, len(parsed.Sentences))

	for i := range parsed.Tokens {
		tok := &parsed.Tokens[i]
		if isPunctTag(tok.Tag) {
			continue
		}
		m.TokenCount++
		if tok.Sentence < len(sentenceTokens) {
			sentenceTokens[tok.Sentence]++
			if sentenceFirst[tok.Sentence] == nil {
				sentenceFirst[tok.Sentence] = tok
			}
			if strings.HasPrefix(tok.Tag, "VB") {
				sentenceHasVerb[tok.Sentence] = true
			}
		}

		lower := strings.ToLower(tok.Text)
		if intensifiers.contains(lower) {
			m.IntensifierCount++
		}
		if hedgingWords.contains(lower) {
			m.HedgingCount++
		}
		if strings.HasPrefix(tok.Tag, "VB") && sensationalVerbs.contains(lower) {
			m.SensationalVerbs++
		}
		if strings.HasPrefix(tok.Tag, "JJ") && emotionalAdjectives.contains(lower) {
			m.EmotionalAdjCount++
		}
		if len([]rune(tok.Text)) > 1 && isAllUpperAlpha(tok.Text) {
			m.CapsLockWords++
		}
	}

	total := 0
	for i, n := range sentenceTokens {
		total += n
		if first := sentenceFirst[i]; first != nil && (first.Tag == "VB" || first.Tag == "VBP") {
			m.ImperativeCount++
		}
		if !sentenceHasVerb[i] && n > 2 {
			m.FragmentCount++
		}
	}
	if len(sentenceTokens) > 0 {
		m.AvgSentenceLength = float64(total) / float64(len(sentenceTokens))
	}

	m.ExclamationCount = strings.Count(parsed.Text, "!")
	m.QuestionCount = strings.Count(parsed.Text, "?")
	m.QuoteCount = strings.Count(parsed.Text, `"`) / 2

	return m
}

func isPunctTag(tag string) bool {
	if tag == "" {
		return true
	}
	r := rune(tag[0])
	return !unicode.IsLetter(r)
}

func isAllUpperAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// scoreSensationalism accumulates capped sub-scores into a 0-100 rating and
// a short qualitative analysis listing the strongest indicators.
func scoreSensationalism(m claims.GrammaticalMetrics) (int, string) {
	score := 0.0
	var breakdown []string

	tokenCount := m.TokenCount
	if tokenCount == 0 {
		tokenCount = 1
	}
	sentenceCount := m.SentenceCount
	if sentenceCount == 0 {
		sentenceCount = 1
	}

	emotional := capped(float64(m.IntensifierCount+m.EmotionalAdjCount)/float64(tokenCount)*150, 25)
	score += emotional
	if emotional > 10 {
		breakdown = append(breakdown, fmt.Sprintf("High emotional language density: %.1f/25", emotional))
	}

	sensational := capped(float64(m.SensationalVerbs)/float64(tokenCount)*200, 20)
	score += sensational
	if sensational > 8 {
		breakdown = append(breakdown, fmt.Sprintf("Sensational vocabulary: %.1f/20", sensational))
	}

	exclamation := capped(float64(m.ExclamationCount)*5, 15)
	score += exclamation
	if exclamation > 5 {
		breakdown = append(breakdown, fmt.Sprintf("Excessive exclamations: %.1f/15", exclamation))
	}

	caps := capped(float64(m.CapsLockWords)*3, 10)
	score += caps
	if caps > 3 {
		breakdown = append(breakdown, fmt.Sprintf("ALL CAPS usage: %.1f/10", caps))
	}

	structure := 0.0
	switch {
	case m.AvgSentenceLength < 10:
		structure = 10
		breakdown = append(breakdown, "Short punchy sentences: 10/15")
	case m.AvgSentenceLength < 15:
		structure = 5
	}
	structure += capped(float64(m.FragmentCount)/float64(sentenceCount)*15, 5)
	score += structure

	imperative := capped(float64(m.ImperativeCount)*5, 10)
	score += imperative
	if imperative > 3 {
		breakdown = append(breakdown, fmt.Sprintf("Imperative commands: %.1f/10", imperative))
	}

	hedging := capped(float64(m.HedgingCount)*2, 10)
	score -= hedging
	if hedging > 3 {
		breakdown = append(breakdown, fmt.Sprintf("Hedging language (reduces sensationalism): -%.1f", hedging))
	}

	if float64(m.QuoteCount)/float64(sentenceCount) > 0.5 {
		score += 5
		breakdown = append(breakdown, "High quote density: 5/5")
	}

	final := int(score)
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}

	var analysis string
	switch {
	case final < 25:
		analysis = "Neutral, factual reporting style with minimal emotional language."
	case final < 45:
		analysis = "Moderately emotive with some sensational elements present."
	case final < 65:
		analysis = "Highly sensationalized with emotional manipulation tactics."
	default:
		analysis = "Extremely sensationalized, likely designed to provoke strong reactions."
	}

	if len(breakdown) > 0 {
		if len(breakdown) > 3 {
			breakdown = breakdown[:3]
		}
		analysis += " Key indicators: " + strings.Join(breakdown, "; ")
	}

	return final, analysis
}

func capped(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}
