package assistant

// layoutAnchor closes the inner and outer wrappers of the starter layout
const layoutAnchor = "</div>\n    </div>"

const buttonSnippet = `        <button className="px-6 py-3 bg-blue-600 text-white rounded-lg hover:bg-blue-700 transition-colors mt-4">
          Get Started
        </button>
      </div>
    </div>`

const formSnippet = `        <form className="mt-6 space-y-4">
          <div>
            <input
              type="text"
              placeholder="Your Name"
              className="w-full px-4 py-2 border border-gray-300 rounded-lg focus:outline-none focus:ring-2 focus:ring-blue-500"
            />
          </div>
          <div>
            <input
              type="email"
              placeholder="Your Email"
              className="w-full px-4 py-2 border border-gray-300 rounded-lg focus:outline-none focus:ring-2 focus:ring-blue-500"
            />
          </div>
          <div>
            <textarea
              placeholder="Your Message"
              rows={4}
              className="w-full px-4 py-2 border border-gray-300 rounded-lg focus:outline-none focus:ring-2 focus:ring-blue-500"
            />
          </div>
          <button
            type="submit"
            className="w-full px-6 py-3 bg-blue-600 text-white rounded-lg hover:bg-blue-700 transition-colors"
          >
            Send Message
          </button>
        </form>
      </div>
    </div>`

const darkModeState = `export default function App() {
  const [darkMode, setDarkMode] = useState(false);

  const toggleDarkMode = () => {
    setDarkMode(!darkMode);
  };`

const darkModeRoot = "<div className={`min-h-screen ${darkMode ? 'bg-gray-900' : 'bg-gray-50'} flex items-center justify-center`}>" + `
      <button
        onClick={toggleDarkMode}
        className="absolute top-4 right-4 px-4 py-2 bg-gray-200 dark:bg-gray-700 rounded-lg"
      >
        {darkMode ? '☀️' : '🌙'}
      </button>`

const darkModeHeading = "<h1 className={`text-4xl font-bold ${darkMode ? 'text-white' : 'text-gray-900'} mb-4`}>"

// DefaultRules returns the editor's rule set in match order
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "button",
			Subject: "a button",
			Trigger: AnyKeyword("button", "add button"),
			Splice:  ReplaceFirst(layoutAnchor, buttonSnippet),
			Reply:   "I've added a button component to your application. The button includes hover effects and is fully responsive.",
		},
		{
			Name:    "form",
			Subject: "a contact form",
			Trigger: AnyKeyword("form", "input"),
			Splice:  ReplaceFirst(layoutAnchor, formSnippet),
			Reply:   "I've created a contact form with proper validation and styling. The form includes name, email, and message fields.",
		},
		{
			Name:    "dark-mode",
			Subject: "a dark mode toggle",
			Trigger: AnyKeyword("dark mode", "dark theme"),
			Splice: Replacements(
				Replacement{Anchor: "import React from 'react';", With: "import React, { useState } from 'react';", Optional: true},
				Replacement{Anchor: "export default function App() {", With: darkModeState},
				Replacement{Anchor: `<div className="min-h-screen bg-gray-50 flex items-center justify-center">`, With: darkModeRoot},
				Replacement{Anchor: `<h1 className="text-4xl font-bold text-gray-900 mb-4">`, With: darkModeHeading},
			),
			Reply: "I've implemented a dark mode toggle for your application. Users can now switch between light and dark themes.",
		},
	}
}
