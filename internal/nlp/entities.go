package nlp

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/veritaslabs/veritas/internal/claims"
)

var highValueTypes = newWordSet("PERSON", "ORG", "GPE", "LOC", "EVENT", "PRODUCT", "LAW")

var mediumValueTypes = newWordSet("DATE", "TIME", "MONEY", "PERCENT", "QUANTITY")

const totalValueTypes = 12

// extractEntities scores and ranks the parsed entity spans and computes the
// overall entity-quality score in [0,100].
func extractEntities(parsed ParsedText) ([]claims.Entity, int) {
	seen := map[string]struct{}{}
	distinctTypes := map[string]struct{}{}
	entities := make([]claims.Entity, 0, len(parsed.Entities))

	for _, span := range parsed.Entities {
		text := strings.TrimSpace(span.Text)
		if len(text) < 2 {
			continue
		}
		key := strings.ToLower(text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		confidence := 0.1
		switch {
		case highValueTypes.contains(span.Label):
			confidence = 0.5
			distinctTypes[span.Label] = struct{}{}
		case mediumValueTypes.contains(span.Label):
			confidence = 0.3
			distinctTypes[span.Label] = struct{}{}
		}

		words := len(strings.Fields(text))
		if words >= 2 {
			confidence += 0.2
		}
		if words >= 3 {
			confidence += 0.1
		}

		first := []rune(text)[0]
		if unicode.IsUpper(first) && text != strings.ToUpper(text) {
			confidence += 0.1
		}

		if playsGrammaticalRole(parsed.Tokens, span) {
			confidence += 0.1
		}

		if confidence > 1.0 {
			confidence = 1.0
		}

		entities = append(entities, claims.Entity{
			Text:       text,
			Label:      span.Label,
			Confidence: math.Round(confidence*100) / 100,
			StartChar:  span.Start,
			EndChar:    span.End,
		})
	}

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Confidence > entities[j].Confidence
	})

	if len(entities) == 0 {
		return entities, 0
	}

	highValue := 0
	confSum := 0.0
	for _, e := range entities {
		if highValueTypes.contains(e.Label) {
			highValue++
		}
		confSum += e.Confidence
	}

	typeDiversity := float64(len(distinctTypes)) / totalValueTypes
	highRatio := float64(highValue) / float64(len(entities))
	avgConfidence := confSum / float64(len(entities))

	quality := int(typeDiversity*30 + highRatio*40 + avgConfidence*30)
	return entities, quality
}

// playsGrammaticalRole reports whether the span neighbors a verb, a rough
// stand-in for a subject or object dependency role.
func playsGrammaticalRole(tokens []Token, span Span) bool {
	for i, tok := range tokens {
		end := tok.Start + len(tok.Text)
		if end <= span.Start || tok.Start >= span.End {
			continue
		}
		// token overlaps the span; inspect immediate neighbors
		if i > 0 && strings.HasPrefix(tokens[i-1].Tag, "VB") {
			return true
		}
		if i < len(tokens)-1 && strings.HasPrefix(tokens[i+1].Tag, "VB") {
			return true
		}
	}
	return false
}

// entityWarning returns at most one warning code, higher priority checks
// first.
func entityWarning(entities []claims.Entity, quality int) string {
	if len(entities) == 0 {
		return claims.WarningNoEntities
	}
	if quality < claims.MinEntityQualityScore {
		return claims.WarningLowQuality
	}
	confident := 0
	for _, e := range entities {
		if e.Confidence > 0.5 {
			confident++
		}
	}
	if confident < 2 {
		return claims.WarningLowConfidence
	}
	return ""
}
