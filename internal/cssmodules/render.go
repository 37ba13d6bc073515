package icm

import (
	"errors"
	"html/template"
	"regexp"
	"strings"
)

var styleCloseRegex = regexp.MustCompile(`(?i)</style`)

func writeStyleElement(sb *strings.Builder, name, css string) {
	sb.WriteString(`<style id="`)
	sb.WriteString(template.HTMLEscapeString(name))
	sb.WriteString(`">`)
	// "\/" is a CSS escape for "/", so the text is unchanged for the CSS
	// parser while the HTML parser no longer sees a closing tag.
	sb.WriteString(styleCloseRegex.ReplaceAllStringFunc(css, func(m string) string {
		return "<\\/" + m[2:]
	}))
	sb.WriteString("</style>")
}

func writeLinkElement(sb *strings.Builder, name, href string) {
	sb.WriteString(`<link rel="stylesheet" id="`)
	sb.WriteString(template.HTMLEscapeString(name))
	sb.WriteString(`" href="`)
	sb.WriteString(template.HTMLEscapeString(href))
	sb.WriteString(`"/>`)
}

var errNoHandle = errors.New("no resource handle attached")

// renderMarkup builds the container contents for entries, already in
// injection order.
func renderMarkup(entries []renderEntry, strategy EmbedStrategy) (string, error) {
	var sb strings.Builder
	for _, e := range entries {
		switch strategy {
		case StrategyExternal:
			if e.handle == "" {
				return "", &ResourceMaterializationError{Name: e.rec.Name, Err: errNoHandle}
			}
			writeLinkElement(&sb, e.rec.Name, e.handle)
		default:
			writeStyleElement(&sb, e.rec.Name, e.rec.InjectableSource)
		}
	}
	return sb.String(), nil
}
