// Package assistant implements the editor's keyword-driven code assistant.
//
// A Pipeline holds an ordered rule table. Each utterance is matched against the
// rules in order and the first rule whose trigger fires rewrites the buffer.
// The pipeline is pure: it never sleeps, persists or fails. Latency, credit
// checks and committing the result belong to the caller.
package assistant

import (
	"fmt"
	"strings"
)

// FallbackReply is returned when no rule matches
const FallbackReply = "I understand you want to modify your application. Could you be more specific about what you'd like to add or change? For example, you could ask me to 'add a button', 'create a form', or 'implement dark mode'."

const noAnchorReply = "I tried to add %s, but I couldn't find the spot in your current file where it belongs, so I left your code unchanged. Restore the closing tags of the main layout and ask me again."

// Result is the outcome of one utterance
type Result struct {
	Reply   string
	Code    string
	Rule    string // name of the rule that fired, empty on fallback
	Matched bool   // a rule's trigger fired
	Applied bool   // the rule changed the buffer
}

// Pipeline matches utterances against a fixed rule table
type Pipeline struct {
	rules    []Rule
	fallback string
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithFallback overrides the guidance reply used when nothing matches
func WithFallback(reply string) Option {
	return func(p *Pipeline) {
		p.fallback = reply
	}
}

// New creates a pipeline over rules, evaluated in the given order
func New(rules []Rule, opts ...Option) *Pipeline {
	p := &Pipeline{
		rules:    append([]Rule(nil), rules...),
		fallback: FallbackReply,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Default creates a pipeline with DefaultRules
func Default() *Pipeline {
	return New(DefaultRules())
}

// Rules returns the rule names in match order
func (p *Pipeline) Rules() []string {
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name
	}
	return names
}

// Respond produces the reply and new buffer for an utterance. A blank
// utterance yields an empty reply and the unchanged buffer.
func (p *Pipeline) Respond(utterance, code string) Result {
	text := strings.ToLower(strings.TrimSpace(utterance))
	if text == "" {
		return Result{Code: code}
	}

	for _, rule := range p.rules {
		if !rule.Trigger(text) {
			continue
		}

		next, ok := rule.Splice(code)
		if !ok {
			return Result{
				Reply:   fmt.Sprintf(noAnchorReply, rule.Subject),
				Code:    code,
				Rule:    rule.Name,
				Matched: true,
			}
		}
		return Result{
			Reply:   rule.Reply,
			Code:    next,
			Rule:    rule.Name,
			Matched: true,
			Applied: true,
		}
	}

	return Result{Reply: p.fallback, Code: code}
}
