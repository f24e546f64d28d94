// Package render produces print-ready output from stored document versions.
// Versions are kept as plain text with light markdown structure; rendering
// turns them into styled HTML and, through a headless browser, into PDF.
package render

import (
	"fmt"
	"html/template"
	"strings"
)

var pageTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Georgia, 'Times New Roman', serif; font-size: 11pt; color: #1a1a1a; margin: 0.75in; line-height: 1.45; }
  h1 { font-size: 18pt; margin: 0 0 4pt 0; border-bottom: 1px solid #444; padding-bottom: 3pt; }
  h2 { font-size: 13pt; margin: 14pt 0 4pt 0; text-transform: uppercase; letter-spacing: 0.5pt; }
  h3 { font-size: 11pt; margin: 10pt 0 2pt 0; }
  p { margin: 4pt 0; }
  ul { margin: 2pt 0 6pt 0; padding-left: 18pt; }
  li { margin: 2pt 0; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// documentPage is the data fed to the page template.
type documentPage struct {
	Title string
	Body  template.HTML
}

// HTML renders document text into a standalone styled HTML page. Content is
// treated as plain text with markdown-style headings and bullets; everything
// is escaped before structural tags are applied.
func HTML(title, content string) (string, error) {
	body := buildBody(content)

	var sb strings.Builder
	err := pageTemplate.Execute(&sb, documentPage{
		Title: title,
		Body:  template.HTML(body),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render document template: %w", err)
	}
	return sb.String(), nil
}

// buildBody converts cleaned text lines into HTML blocks. Only the markdown
// subset the cleaner preserves is recognized: #/##/### headings and -/* bullets.
func buildBody(content string) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var sb strings.Builder
	inList := false
	closeList := func() {
		if inList {
			sb.WriteString("</ul>\n")
			inList = false
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			closeList()
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "### "):
			closeList()
			sb.WriteString("<h3>" + template.HTMLEscapeString(strings.TrimPrefix(trimmed, "### ")) + "</h3>\n")
		case strings.HasPrefix(trimmed, "## "):
			closeList()
			sb.WriteString("<h2>" + template.HTMLEscapeString(strings.TrimPrefix(trimmed, "## ")) + "</h2>\n")
		case strings.HasPrefix(trimmed, "# "):
			closeList()
			sb.WriteString("<h1>" + template.HTMLEscapeString(strings.TrimPrefix(trimmed, "# ")) + "</h1>\n")
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			if !inList {
				sb.WriteString("<ul>\n")
				inList = true
			}
			sb.WriteString("<li>" + template.HTMLEscapeString(trimmed[2:]) + "</li>\n")
		default:
			closeList()
			sb.WriteString("<p>" + template.HTMLEscapeString(trimmed) + "</p>\n")
		}
	}
	closeList()

	return sb.String()
}
