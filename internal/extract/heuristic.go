package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Class/id fragments marking removable chrome. Elements also matching a
// preserve pattern are kept even when they match one of these.
var stripPatterns = regexp.MustCompile(`(?i)(nav|menu|sidebar|footer|header|comment|promo|advert|banner|social|share|related|newsletter|subscribe|popup|cookie)`)

var preservePatterns = regexp.MustCompile(`(?i)(main|article|story)`)

var contentDivPatterns = regexp.MustCompile(`(?i)(content|article|story|post|body|text|entry)`)

const minParagraphLen = 40

// extractHeuristic recovers article text by scoring candidate containers on
// paragraph density. Returns the winning text, which may be empty.
func extractHeuristic(doc *goquery.Document) string {
	stripChrome(doc)

	candidates := collectCandidates(doc)

	best := ""
	bestScore := 0
	for _, c := range candidates {
		text, score := scoreCandidate(c)
		if score > bestScore {
			best = text
			bestScore = score
		}
	}
	if bestScore > 0 {
		return best
	}

	// no container scored; fall back to every long paragraph in the document
	var parts []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) >= minParagraphLen*2 {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

// stripChrome removes script/style and navigation-pattern elements, keeping
// anything whose class or id also looks like main content.
func stripChrome(doc *goquery.Document) {
	doc.Find("script, style, noscript, iframe, svg, form, button").Remove()

	doc.Find("nav, footer, aside, header").Each(func(_ int, sel *goquery.Selection) {
		if !matchesPreserve(sel) {
			sel.Remove()
		}
	})

	doc.Find("div, section, ul").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		id, _ := sel.Attr("id")
		key := class + " " + id
		if stripPatterns.MatchString(key) && !preservePatterns.MatchString(key) {
			sel.Remove()
		}
	})
}

func matchesPreserve(sel *goquery.Selection) bool {
	class, _ := sel.Attr("class")
	id, _ := sel.Attr("id")
	return preservePatterns.MatchString(class + " " + id)
}

// collectCandidates returns containers in priority order: semantic article
// and main elements, content-pattern divs, then the whole body as last resort.
func collectCandidates(doc *goquery.Document) []*goquery.Selection {
	var candidates []*goquery.Selection
	doc.Find("article, main").Each(func(_ int, sel *goquery.Selection) {
		candidates = append(candidates, sel)
	})
	doc.Find("div").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		id, _ := sel.Attr("id")
		if contentDivPatterns.MatchString(class + " " + id) {
			candidates = append(candidates, sel)
		}
	})
	if body := doc.Find("body"); body.Length() > 0 {
		candidates = append(candidates, body)
	}
	return candidates
}

// scoreCandidate sums paragraph text length, skipping link-dominated
// paragraphs, and returns the concatenated paragraph text with its score.
func scoreCandidate(sel *goquery.Selection) (string, int) {
	var parts []string
	score := 0
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) < minParagraphLen {
			return
		}
		linkLen := 0
		p.Find("a").Each(func(_ int, a *goquery.Selection) {
			linkLen += len(strings.TrimSpace(a.Text()))
		})
		// navigation blocks are mostly links
		if linkLen*2 > len(text) {
			return
		}
		parts = append(parts, text)
		score += len(text)
	})
	return strings.Join(parts, "\n\n"), score
}
