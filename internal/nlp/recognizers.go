package nlp

import (
	"regexp"
	"strings"

	cregex "github.com/mingrammer/commonregex"
)

// Supplemental pattern-based recognizers for entity types the statistical
// model does not label. Spans overlapping a model entity are dropped.

var percentRegex = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:%|percent)\b`)

var orgSuffixes = []string{
	"Inc", "Inc.", "Corp", "Corp.", "Ltd", "Ltd.", "LLC", "Co.",
	"Company", "Corporation", "University", "Institute", "Department",
	"Agency", "Administration", "Association", "Committee", "Commission",
	"Organization", "Foundation", "Bureau", "Ministry",
}

func recognizePatterns(text string, tokens []Token) []Span {
	var spans []Span
	spans = appendMatches(spans, text, cregex.DateRegex, "DATE")
	spans = appendMatches(spans, text, cregex.TimeRegex, "TIME")
	spans = appendMatches(spans, text, cregex.PriceRegex, "MONEY")
	spans = appendMatches(spans, text, percentRegex, "PERCENT")
	spans = append(spans, recognizeOrgs(text, tokens)...)
	return spans
}

func appendMatches(spans []Span, text string, re *regexp.Regexp, label string) []Span {
	for _, loc := range re.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{
			Text:  text[loc[0]:loc[1]],
			Label: label,
			Start: loc[0],
			End:   loc[1],
		})
	}
	return spans
}

// recognizeOrgs labels runs of proper nouns that end in a corporate or
// institutional suffix.
func recognizeOrgs(text string, tokens []Token) []Span {
	var spans []Span
	cursor := 0
	run := make([]string, 0, 4)
	flush := func() {
		if len(run) < 2 {
			run = run[:0]
			return
		}
		last := run[len(run)-1]
		for _, suffix := range orgSuffixes {
			if last != suffix {
				continue
			}
			phrase := strings.Join(run, " ")
			// allow punctuation and varying whitespace between the words
			if start := findPhrase(text, cursor, run); start >= 0 {
				spans = append(spans, Span{
					Text:  phrase,
					Label: "ORG",
					Start: start,
					End:   start + len(phrase),
				})
			}
			break
		}
		run = run[:0]
	}
	for _, tok := range tokens {
		if strings.HasPrefix(tok.Tag, "NNP") {
			run = append(run, tok.Text)
			continue
		}
		flush()
	}
	flush()
	return spans
}

func findPhrase(text string, cursor int, words []string) int {
	if cursor > len(text) {
		return -1
	}
	idx := strings.Index(text[cursor:], words[0])
	if idx < 0 {
		idx = strings.Index(text, words[0])
		if idx < 0 {
			return -1
		}
		return idx
	}
	return cursor + idx
}
