package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// articleTypes are the structured-data types accepted as article content.
var articleTypes = map[string]struct{}{
	"Article":     {},
	"NewsArticle": {},
	"BlogPosting": {},
}

// structuredArticle is the subset of a JSON-LD article node we care about.
type structuredArticle struct {
	Type        any             `json:"@type"`
	Graph       json.RawMessage `json:"@graph"`
	Headline    string          `json:"headline"`
	ArticleBody string          `json:"articleBody"`
	Author      json.RawMessage `json:"author"`
	Publisher   json.RawMessage `json:"publisher"`
	Published   string          `json:"datePublished"`
}

type namedThing struct {
	Name string `json:"name"`
}

// extractStructured scans ld+json blocks for an Article-typed node carrying a
// declared article body. The body is returned verbatim; the caller applies
// length gating and post-processing.
func extractStructured(doc *goquery.Document) (structuredArticle, bool) {
	var found structuredArticle
	var ok bool

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return true
		}
		for _, node := range decodeNodes(raw) {
			if node.ArticleBody == "" || !isArticleType(node.Type) {
				continue
			}
			found = node
			ok = true
			return false
		}
		return true
	})

	return found, ok
}

// decodeNodes handles the three shapes ld+json blocks come in: a single
// object, a top-level array, and an object wrapping a @graph array.
func decodeNodes(raw string) []structuredArticle {
	var single structuredArticle
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		if len(single.Graph) > 0 {
			var graph []structuredArticle
			if err := json.Unmarshal(single.Graph, &graph); err == nil {
				return append([]structuredArticle{single}, graph...)
			}
		}
		return []structuredArticle{single}
	}

	var list []structuredArticle
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list
	}
	return nil
}

// isArticleType handles @type given as a string or a list of strings.
func isArticleType(t any) bool {
	switch v := t.(type) {
	case string:
		_, ok := articleTypes[v]
		return ok
	case []any:
		for _, item := range v {
			s, isStr := item.(string)
			if !isStr {
				continue
			}
			if _, ok := articleTypes[s]; ok {
				return true
			}
		}
	}
	return false
}

// authorName digs a display name out of the author field, which publishers
// emit as a string, an object, or a list of either.
func authorName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var one namedThing
	if err := json.Unmarshal(raw, &one); err == nil && one.Name != "" {
		return one.Name
	}
	var many []json.RawMessage
	if err := json.Unmarshal(raw, &many); err == nil {
		names := make([]string, 0, len(many))
		for _, item := range many {
			if n := authorName(item); n != "" {
				names = append(names, n)
			}
		}
		return strings.Join(names, ", ")
	}
	return ""
}
