package projects

import (
	"fmt"
	"path"

	"github.com/shivavenkatesh/webforge/pkg/types"
)

// TypeInfo describes a project stack
type TypeInfo struct {
	ID          types.ProjectType `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Features    []string          `json:"features"`
	ComingSoon  bool              `json:"coming_soon"`
}

// Template describes a starting layout
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultTemplate is used when a create request names none
const DefaultTemplate = "blank"

var projectTypes = []TypeInfo{
	{
		ID:          types.TypeReactVite,
		Name:        "React + Vite",
		Description: "Modern React application with Vite build tool",
		Features:    []string{"React 18", "Vite", "TypeScript", "Hot Reload"},
	},
	{
		ID:          types.TypeNextJS,
		Name:        "Next.js",
		Description: "Full-stack React framework with SSR/SSG",
		Features:    []string{"Next.js 15", "App Router", "SSR/SSG", "API Routes"},
	},
	{
		ID:          types.TypeTailwind,
		Name:        "Tailwind CSS",
		Description: "Utility-first CSS framework for rapid UI development",
		Features:    []string{"Tailwind CSS", "Responsive Design", "Customizable", "JIT Compilation"},
	},
	{
		ID:          types.TypeReactNative,
		Name:        "React Native",
		Description: "Cross-platform mobile app development",
		Features:    []string{"iOS & Android", "Native Performance", "Hot Reload", "Expo"},
		ComingSoon:  true,
	},
}

var templates = []Template{
	{ID: "blank", Name: "Blank Project", Description: "Start from scratch with a clean slate"},
	{ID: "landing-page", Name: "Landing Page", Description: "Modern landing page with hero section"},
	{ID: "dashboard", Name: "Admin Dashboard", Description: "Analytics dashboard with charts and tables"},
	{ID: "ecommerce", Name: "E-commerce Store", Description: "Online store with cart and checkout"},
	{ID: "blog", Name: "Blog Platform", Description: "Content-focused blog with markdown support"},
	{ID: "portfolio", Name: "Portfolio Site", Description: "Showcase your work and skills"},
}

// Types returns the project stack catalogue
func Types() []TypeInfo {
	out := make([]TypeInfo, len(projectTypes))
	copy(out, projectTypes)
	return out
}

// Templates returns the template catalogue
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

func lookupType(t types.ProjectType) (TypeInfo, bool) {
	for _, info := range projectTypes {
		if info.ID == t {
			return info, true
		}
	}
	return TypeInfo{}, false
}

func knownTemplate(id string) bool {
	for _, tpl := range templates {
		if tpl.ID == id {
			return true
		}
	}
	return false
}

// StarterCode returns the initial App component for a new project
func StarterCode(name string) string {
	if name == "" {
		name = "Your Project"
	}
	return fmt.Sprintf(`import React from 'react';

export default function App() {
  return (
    <div className="min-h-screen bg-gray-50 flex items-center justify-center">
      <div className="text-center">
        <h1 className="text-4xl font-bold text-gray-900 mb-4">
          Welcome to %s
        </h1>
        <p className="text-lg text-gray-600 mb-8">
          Start building your amazing application with AI assistance.
        </p>
        <div className="space-x-4">
          <button className="px-6 py-3 bg-blue-600 text-white rounded-lg hover:bg-blue-700 transition-colors">
            Get Started
          </button>
          <button className="px-6 py-3 bg-gray-200 text-gray-800 rounded-lg hover:bg-gray-300 transition-colors">
            Learn More
          </button>
        </div>
      </div>
    </div>
  );
}`, name)
}

// Files returns the static file tree shown for a project type
func Files(t types.ProjectType) []types.FileNode {
	if t == types.TypeNextJS {
		return []types.FileNode{
			dir("app",
				file("app/page.tsx"),
				file("app/layout.tsx"),
				file("app/globals.css"),
			),
			file("package.json"),
			file("README.md"),
		}
	}
	return []types.FileNode{
		dir("src",
			file("src/App.tsx"),
			file("src/index.css"),
			file("src/main.tsx"),
		),
		file("package.json"),
		file("README.md"),
	}
}

func file(p string) types.FileNode {
	return types.FileNode{Name: path.Base(p), Path: p, Type: "file"}
}

func dir(p string, children ...types.FileNode) types.FileNode {
	return types.FileNode{Name: path.Base(p), Path: p, Type: "directory", Children: children}
}
