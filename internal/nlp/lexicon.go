package nlp

import "strings"

// Lexical marker sets used by the sensationalism scorer. Matching is
// case-insensitive; inflection-sensitive sets compare crude stems so that
// "shocked" and "shocking" hit the same entry.

var intensifiers = newStemSet(
	"very", "extremely", "highly", "deeply", "incredibly", "absolutely",
	"totally", "completely", "utterly", "unbelievably", "insanely", "literally",
	"massive", "huge", "enormous", "shocking", "devastating", "unprecedented",
	"catastrophic", "revolutionary", "groundbreaking", "astounding", "miraculous",
)

var sensationalVerbs = newStemSet(
	"claim", "allege", "suggest", "insist", "assert", "declare", "proclaim",
	"reveal", "expose", "uncover", "discover", "slam", "blast", "destroy",
	"demolish", "crush", "annihilate", "shock", "stun", "amaze", "confess",
)

var hedgingWords = newWordSet(
	"allegedly", "reportedly", "supposedly", "apparently", "seemingly",
	"claimed", "suggested", "rumored", "unconfirmed", "unverified",
)

var emotionalAdjectives = newStemSet(
	"shocking", "devastating", "horrifying", "terrifying", "amazing", "incredible",
	"unbelievable", "outrageous", "scandalous", "explosive", "bombshell",
	"unprecedented", "historic", "catastrophic", "tragic", "miraculous",
)

type wordSet map[string]struct{}

func newWordSet(words ...string) wordSet {
	s := make(wordSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func (s wordSet) contains(w string) bool {
	_, ok := s[w]
	return ok
}

// stemSet indexes words by both their literal form and a crude stem.
type stemSet struct {
	exact   wordSet
	stemmed wordSet
}

func newStemSet(words ...string) stemSet {
	s := stemSet{exact: newWordSet(words...), stemmed: make(wordSet, len(words))}
	for _, w := range words {
		s.stemmed[stem(w)] = struct{}{}
	}
	return s
}

func (s stemSet) contains(w string) bool {
	if s.exact.contains(w) {
		return true
	}
	st := stem(w)
	// "declared" stems to "declar" while the entry keeps its final "e"
	return s.stemmed.contains(st) || s.stemmed.contains(st+"e")
}

// stem strips common inflection suffixes, undoing doubled final consonants
// ("stunned" -> "stun"). It is deliberately crude; both sides of a lookup go
// through it, so symmetric errors cancel out.
func stem(w string) string {
	for _, suffix := range []string{"ing", "ed", "es", "s"} {
		if !strings.HasSuffix(w, suffix) {
			continue
		}
		base := w[:len(w)-len(suffix)]
		if len(base) < 3 {
			continue
		}
		if len(base) >= 4 && base[len(base)-1] == base[len(base)-2] {
			base = base[:len(base)-1]
		}
		return base
	}
	return w
}
