package assistant

import "strings"

// Trigger decides whether a rule handles an utterance. It receives the
// trimmed, lower-cased utterance and must be pure.
type Trigger func(utterance string) bool

// Splice rewrites a buffer. It must be pure and total: when the text it
// anchors on is missing it returns the input unchanged and false.
type Splice func(code string) (string, bool)

// Rule is one canned code edit
type Rule struct {
	Name    string
	Subject string // what the edit adds, used in the no-op reply
	Trigger Trigger
	Splice  Splice
	Reply   string
}

// AnyKeyword matches when the utterance contains at least one keyword
func AnyKeyword(keywords ...string) Trigger {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return func(utterance string) bool {
		for _, k := range lowered {
			if strings.Contains(utterance, k) {
				return true
			}
		}
		return false
	}
}

// Replacement swaps the first occurrence of Anchor for With
type Replacement struct {
	Anchor   string
	With     string
	Optional bool // skipped rather than failing when Anchor is absent
}

// ReplaceFirst splices with at the first occurrence of anchor
func ReplaceFirst(anchor, with string) Splice {
	return Replacements(Replacement{Anchor: anchor, With: with})
}

// Replacements applies each replacement in order against the result of the
// previous one. It is all-or-nothing: if any required anchor is missing at its
// step the original buffer is returned.
func Replacements(steps ...Replacement) Splice {
	return func(code string) (string, bool) {
		out := code
		for _, step := range steps {
			if !strings.Contains(out, step.Anchor) {
				if step.Optional {
					continue
				}
				return code, false
			}
			out = strings.Replace(out, step.Anchor, step.With, 1)
		}
		return out, true
	}
}
