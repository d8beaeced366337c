// Package nlp implements the rule-based linguistic scorer: named-entity
// extraction with confidence scoring and grammatical sensationalism analysis.
package nlp

import (
	"strings"

	prose "github.com/jdkato/prose/v2"
)

// Token is a single tagged token with its character offset and the index of
// its containing sentence.
type Token struct {
	Text     string
	Tag      string
	Start    int
	Sentence int
}

// Span is a labeled entity span with character offsets into the source text.
type Span struct {
	Text  string
	Label string
	Start int
	End   int
}

// ParsedText is the tagger output the scorer operates on.
type ParsedText struct {
	Text      string
	Sentences []string
	Tokens    []Token
	Entities  []Span
}

// Tagger tokenizes, POS-tags and entity-labels raw text.
type Tagger interface {
	Parse(text string) (ParsedText, error)
}

// ProseTagger parses text with the prose statistical model.
type ProseTagger struct{}

// NewProseTagger returns a Tagger backed by prose's default English model.
func NewProseTagger() *ProseTagger {
	return &ProseTagger{}
}

// Parse runs tokenization, tagging, NER and sentence segmentation in one pass.
func (p *ProseTagger) Parse(text string) (ParsedText, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return ParsedText{}, err
	}

	parsed := ParsedText{Text: text}

	sentences := doc.Sentences()
	parsed.Sentences = make([]string, 0, len(sentences))
	// Sentence boundaries as cumulative character offsets, used to assign
	// each token to its sentence.
	bounds := make([]int, 0, len(sentences))
	cursor := 0
	for _, s := range sentences {
		parsed.Sentences = append(parsed.Sentences, s.Text)
		idx := strings.Index(text[cursor:], s.Text)
		if idx < 0 {
			idx = 0
		}
		cursor += idx + len(s.Text)
		bounds = append(bounds, cursor)
	}

	tokens := doc.Tokens()
	parsed.Tokens = make([]Token, 0, len(tokens))
	cursor = 0
	sentIdx := 0
	for _, tok := range tokens {
		idx := strings.Index(text[cursor:], tok.Text)
		start := cursor
		if idx >= 0 {
			start = cursor + idx
			cursor = start + len(tok.Text)
		}
		for sentIdx < len(bounds)-1 && start >= bounds[sentIdx] {
			sentIdx++
		}
		parsed.Tokens = append(parsed.Tokens, Token{
			Text:     tok.Text,
			Tag:      tok.Tag,
			Start:    start,
			Sentence: sentIdx,
		})
	}

	parsed.Entities = resolveSpans(text, doc.Entities())
	parsed.Entities = append(parsed.Entities, recognizePatterns(text, parsed.Tokens)...)

	return parsed, nil
}

// resolveSpans assigns character offsets to the model's entities by scanning
// forward through the source text.
func resolveSpans(text string, ents []prose.Entity) []Span {
	spans := make([]Span, 0, len(ents))
	cursor := 0
	for _, ent := range ents {
		idx := strings.Index(text[cursor:], ent.Text)
		if idx < 0 {
			// repeated mention earlier in the text; fall back to a global scan
			idx = strings.Index(text, ent.Text)
			if idx < 0 {
				continue
			}
			spans = append(spans, Span{Text: ent.Text, Label: ent.Label, Start: idx, End: idx + len(ent.Text)})
			continue
		}
		start := cursor + idx
		spans = append(spans, Span{Text: ent.Text, Label: ent.Label, Start: start, End: start + len(ent.Text)})
		cursor = start + len(ent.Text)
	}
	return spans
}
