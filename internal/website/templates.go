// Package website renders the conference registration form and hosts the
// live component behind it.
package website

import (
	"embed"
	"html/template"
)

// PageConfig defines the page around the form.
type PageConfig struct {
	// Title is the page title and heading
	Title string
	// Description is the meta description
	Description string
	// Language is the page language (default: "en")
	Language string
	// ThemeColor is the mobile browser theme color
	ThemeColor string
	// LivePath is the WebSocket endpoint (default: "/live")
	LivePath string
	// ScriptPath is the client script URL (default: "/_live/regform.js")
	ScriptPath string
}

// DefaultPageConfig returns the page settings used by the server.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Title:       "Conference Registration",
		Description: "Register for the full-stack conference, pick a shirt and your workshops.",
		Language:    "en",
	}
}

func (c PageConfig) scriptPath() string {
	if c.ScriptPath == "" {
		return "/_live/regform.js"
	}
	return c.ScriptPath
}

//go:embed templates/*.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/form.html"))
