package website

import (
	"fmt"
	"html"
	"strings"
)

// RenderHead generates the <head> section with the inline stylesheet.
func RenderHead(cfg PageConfig) string {
	var sb strings.Builder

	themeColor := cfg.ThemeColor
	if themeColor == "" {
		themeColor = Colors["primary"]
	}

	sb.WriteString("<head>\n")
	sb.WriteString(`<meta charset="UTF-8">` + "\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")
	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(cfg.Title)))

	if cfg.Description != "" {
		sb.WriteString(fmt.Sprintf(`<meta name="description" content="%s">`+"\n", html.EscapeString(cfg.Description)))
	}
	sb.WriteString(fmt.Sprintf(`<meta name="theme-color" content="%s">`+"\n", html.EscapeString(themeColor)))
	// Registration pages are not meant to be indexed
	sb.WriteString(`<meta name="robots" content="noindex">` + "\n")

	sb.WriteString("<style>\n")
	sb.WriteString(RenderStyles())
	sb.WriteString("\n</style>\n")
	sb.WriteString("</head>\n")

	return sb.String()
}

// RenderDocument wraps the live form in a complete HTML document. The
// container carries the WebSocket path the client script connects to.
func RenderDocument(cfg PageConfig, form string) string {
	lang := cfg.Language
	if lang == "" {
		lang = "en"
	}
	livePath := cfg.LivePath
	if livePath == "" {
		livePath = "/live"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="%s">
%s<body>
<main class="container">
<h1>%s</h1>
<div id="regform" data-live="%s">%s</div>
</main>
<script src="%s"></script>
</body>
</html>`,
		html.EscapeString(lang),
		RenderHead(cfg),
		html.EscapeString(cfg.Title),
		html.EscapeString(livePath),
		form,
		html.EscapeString(cfg.scriptPath()),
	)
}
