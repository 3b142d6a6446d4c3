package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const starter = `import React from 'react';

export default function App() {
  return (
    <div className="min-h-screen bg-gray-50 flex items-center justify-center">
      <div className="text-center">
        <h1 className="text-4xl font-bold text-gray-900 mb-4">
          Welcome to Demo
        </h1>
      </div>
    </div>
  );
}`

func TestRespond_ButtonPreservesOriginal(t *testing.T) {
	p := Default()
	code := "<div>X</div>\n    </div>"

	res := p.Respond("can you add a button", code)

	assert.True(t, res.Matched)
	assert.True(t, res.Applied)
	assert.Equal(t, "button", res.Rule)
	assert.Contains(t, strings.ToLower(res.Reply), "button")
	assert.Contains(t, res.Code, "<button")
	assert.True(t, strings.HasPrefix(res.Code, "<div>X"))
}

func TestRespond_FallbackLeavesCodeUnchanged(t *testing.T) {
	p := Default()

	res := p.Respond("make it purple and bouncy", starter)

	assert.False(t, res.Matched)
	assert.False(t, res.Applied)
	assert.Empty(t, res.Rule)
	assert.Equal(t, FallbackReply, res.Reply)
	assert.Equal(t, starter, res.Code)
}

func TestRespond_FirstMatchWins(t *testing.T) {
	p := Default()

	// Both "button" and "form" keywords are present; button is declared first
	res := p.Respond("add a form with a submit button", starter)

	assert.Equal(t, "button", res.Rule)
	assert.Contains(t, res.Code, "Get Started")
	assert.NotContains(t, res.Code, "<form")
}

func TestRespond_CustomOrder(t *testing.T) {
	rules := DefaultRules()
	rules[0], rules[1] = rules[1], rules[0]
	p := New(rules)

	res := p.Respond("add a form with a submit button", starter)

	assert.Equal(t, "form", res.Rule)
	assert.Contains(t, res.Code, "<form")
	assert.Equal(t, []string{"form", "button", "dark-mode"}, p.Rules())
}

func TestRespond_MissingAnchorIsNoOp(t *testing.T) {
	p := Default()
	inputs := []string{
		"",
		"plain text",
		"<div>no nested close</div>",
		"export default function App() {}",
	}
	utterances := []string{"add button", "create a form", "enable dark mode"}

	for _, code := range inputs {
		for _, u := range utterances {
			res := p.Respond(u, code)
			assert.True(t, res.Matched, "%q should match a rule", u)
			assert.False(t, res.Applied)
			assert.Equal(t, code, res.Code)
			assert.Contains(t, res.Reply, "unchanged")
		}
	}
}

func TestRespond_CaseInsensitive(t *testing.T) {
	p := Default()

	res := p.Respond("  ADD A BUTTON  ", starter)

	assert.Equal(t, "button", res.Rule)
	assert.True(t, res.Applied)
}

func TestRespond_BlankUtterance(t *testing.T) {
	p := Default()

	res := p.Respond("   \n\t", starter)

	assert.Empty(t, res.Reply)
	assert.Equal(t, starter, res.Code)
	assert.False(t, res.Matched)
}

func TestRespond_Form(t *testing.T) {
	p := Default()

	res := p.Respond("I need an input for emails", starter)

	require.True(t, res.Applied)
	assert.Equal(t, "form", res.Rule)
	assert.Contains(t, res.Code, `placeholder="Your Email"`)
	assert.Contains(t, res.Code, "Send Message")
	assert.Contains(t, res.Code, "Welcome to Demo")
}

func TestRespond_DarkMode(t *testing.T) {
	p := Default()

	res := p.Respond("switch to a dark theme please", starter)

	require.True(t, res.Applied)
	assert.Equal(t, "dark-mode", res.Rule)
	assert.True(t, strings.HasPrefix(res.Code, "import React, { useState } from 'react';"))
	assert.Contains(t, res.Code, "const [darkMode, setDarkMode] = useState(false);")
	assert.Contains(t, res.Code, "onClick={toggleDarkMode}")
	assert.Contains(t, res.Code, "${darkMode ? 'text-white' : 'text-gray-900'}")
	assert.NotContains(t, res.Code, `<div className="min-h-screen bg-gray-50 flex items-center justify-center">`)
}

func TestRespond_DarkModeAllOrNothing(t *testing.T) {
	p := Default()
	// Heading anchor removed; the other two anchors are still present
	code := strings.Replace(starter, `<h1 className="text-4xl font-bold text-gray-900 mb-4">`, "<h1>", 1)

	res := p.Respond("dark mode", code)

	assert.True(t, res.Matched)
	assert.False(t, res.Applied)
	assert.Equal(t, code, res.Code)
}

func TestRespond_FallbackIsTotal(t *testing.T) {
	p := New(nil, WithFallback("try again"))

	for _, u := range []string{"x", "add button", "dark mode", "🌙"} {
		res := p.Respond(u, starter)
		assert.Equal(t, "try again", res.Reply)
		assert.Equal(t, starter, res.Code)
	}
}

func TestReplacements_FirstOccurrenceOnly(t *testing.T) {
	splice := ReplaceFirst("a", "b")

	out, ok := splice("aaa")

	assert.True(t, ok)
	assert.Equal(t, "baa", out)
}

func TestAnyKeyword(t *testing.T) {
	trigger := AnyKeyword("Dark Mode", "night")

	assert.True(t, trigger("turn on dark mode"))
	assert.True(t, trigger("night colors"))
	assert.False(t, trigger("dark"))
}
