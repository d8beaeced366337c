package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const minTruncatedChars = 800

var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)share this article[^.\n]*`),
	regexp.MustCompile(`(?i)copyright\s*(©)?\s*\d{4}[^.\n]*`),
	regexp.MustCompile(`(?i)all rights reserved\.?`),
	regexp.MustCompile(`(?i)sign up for our newsletter[^.\n]*`),
	regexp.MustCompile(`(?i)follow us on [^.\n]*`),
	regexp.MustCompile(`(?i)click here to subscribe[^.\n]*`),
	regexp.MustCompile(`(?i)read more:?[^\n]*`),
	regexp.MustCompile(`(?i)advertisement`),
}

var (
	spaceRuns = regexp.MustCompile(`[ \t]+`)
	blankRuns = regexp.MustCompile(`\n\s*\n+`)
	trailEnd  = regexp.MustCompile(`[.!?]\s+[^.!?]*$`)
)

// cleanText collapses whitespace and strips known boilerplate phrases while
// preserving paragraph breaks.
func cleanText(text string) string {
	for _, re := range boilerplatePatterns {
		text = re.ReplaceAllString(text, "")
	}
	text = spaceRuns.ReplaceAllString(text, " ")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// truncate bounds content for downstream reasoning-context safety. It prefers
// paragraph boundaries, keeps at least a useful stub, and finishes with a
// sentence-safe trim.
func truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}

	paragraphs := strings.Split(text, "\n\n")
	var collected []string
	total := 0
	for _, p := range paragraphs {
		if total+len(p) > maxChars {
			break
		}
		collected = append(collected, p)
		total += len(p)
		if total >= minTruncatedChars {
			break
		}
	}

	out := strings.Join(collected, "\n\n")
	if out == "" || len(out) > maxChars {
		if out == "" {
			out = text
		}
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = trailEnd.ReplaceAllString(out[:cut], ".")
	}
	return strings.TrimSpace(out)
}
