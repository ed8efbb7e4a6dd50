package website

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Color palette (WCAG 2.1 AA compliant - 4.5:1 minimum contrast ratio)
var Colors = map[string]string{
	// Backgrounds
	"bg":      "#0F172A", // Dark blue - main background
	"bgAlt":   "#1E293B", // Lighter - fieldsets
	"bgInput": "#0D1117", // Inputs

	// Text
	"text":      "#F8FAFC", // White - primary text (15.5:1 on bg)
	"textMuted": "#CBD5E1", // Light gray - legends, hints (8.5:1 on bg)

	// Brand
	"primary": "#A78BFA", // Lighter purple (7:1 on bg)

	// Status
	"success": "#34D399", // Bright green (7:1 on bg)
	"warning": "#FBBF24", // Bright amber (9:1 on bg)
	"danger":  "#F87171", // Bright red (5.5:1 on bg)

	// Borders
	"border": "#334155",
}

// Typography uses system font stack for instant loading
var FontFamily = `system-ui, -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif`

// StyleOption allows customizing the generated CSS
type StyleOption func(*styleConfig)

type styleConfig struct {
	customColors map[string]string
	includeReset bool
}

// WithCustomColors overrides default colors
func WithCustomColors(colors map[string]string) StyleOption {
	return func(cfg *styleConfig) {
		for k, v := range colors {
			cfg.customColors[k] = v
		}
	}
}

// WithReset includes a CSS reset
func WithReset(include bool) StyleOption {
	return func(cfg *styleConfig) {
		cfg.includeReset = include
	}
}

// RenderStyles generates the CSS of the registration page.
func RenderStyles(opts ...StyleOption) string {
	cfg := &styleConfig{
		customColors: make(map[string]string),
		includeReset: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	colors := maps.Clone(Colors)
	maps.Copy(colors, cfg.customColors)

	var sb strings.Builder
	if cfg.includeReset {
		sb.WriteString(cssReset())
	}
	sb.WriteString(cssVariables(colors))
	sb.WriteString(cssBase())
	sb.WriteString(cssForm())
	sb.WriteString(cssStates())
	sb.WriteString(cssAccessibility())
	return sb.String()
}

func cssReset() string {
	return `
*,*::before,*::after{box-sizing:border-box;margin:0;padding:0}
html{-webkit-text-size-adjust:100%}
body{line-height:1.6;-webkit-font-smoothing:antialiased}
input,button,textarea,select{font:inherit}
`
}

// cssVariables emits one custom property per color, sorted by name so the
// output is stable.
func cssVariables(colors map[string]string) string {
	var vars []string
	for _, name := range slices.Sorted(maps.Keys(colors)) {
		vars = append(vars, fmt.Sprintf("--color-%s:%s", name, colors[name]))
	}
	return fmt.Sprintf(`:root{%s;--font-sans:%s}`, strings.Join(vars, ";"), FontFamily)
}

func cssBase() string {
	return `
body{font-family:var(--font-sans);background:var(--color-bg);color:var(--color-text);min-height:100vh}
.container{width:100%;max-width:640px;margin:0 auto;padding:2rem 1rem}
h1{font-size:2rem;font-weight:800;margin-bottom:1.5rem}
`
}

func cssForm() string {
	// 44px minimum tap target (2.75rem)
	return `
fieldset{background:var(--color-bgAlt);border:1px solid var(--color-border);border-radius:0.75rem;padding:1.25rem;margin-bottom:1.25rem}
legend{font-weight:700;padding:0 0.5rem;color:var(--color-primary)}
label{display:block;margin:0.75rem 0 0.25rem;color:var(--color-textMuted)}
input[type=text],input[type=email],select{width:100%;min-height:2.75rem;padding:0.5rem 0.75rem;background:var(--color-bgInput);color:var(--color-text);border:1px solid var(--color-border);border-radius:0.5rem}
.activities label{display:flex;gap:0.5rem;align-items:center}
.activities label.disabled{opacity:0.5}
.total{margin-top:1rem;font-weight:700}
.btn{display:inline-flex;align-items:center;justify-content:center;min-height:2.75rem;padding:0.75rem 1.25rem;font-weight:600;border-radius:0.5rem;border:none;cursor:pointer}
.btn-primary{background:#6D28D9;color:#FFFFFF}
.btn-secondary{background:transparent;color:var(--color-text);border:1px solid var(--color-border)}
`
}

func cssStates() string {
	return `
.invalid{border-color:var(--color-danger)!important;outline:1px solid var(--color-danger)}
.errors{color:var(--color-danger);font-weight:600;margin-top:0.75rem}
.warning{color:var(--color-warning);font-size:0.875rem;margin-top:0.25rem}
.confirmation{color:var(--color-success);font-size:1.25rem;font-weight:700}
[hidden]{display:none!important}
`
}

func cssAccessibility() string {
	return `
.sr-only{position:absolute;width:1px;height:1px;padding:0;margin:-1px;overflow:hidden;clip:rect(0,0,0,0);white-space:nowrap;border:0}
:focus-visible{outline:2px solid var(--color-primary);outline-offset:2px}
`
}
