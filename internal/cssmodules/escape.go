package icm

import "strings"

// scriptStringEscaper escapes text for a quoted JavaScript string literal:
// quotes, backslash, control characters that may not appear raw, and the
// two line terminators JavaScript treats as newlines.
var scriptStringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`'`, `\'`,
	"\f", `\f`,
	"\b", `\b`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

func EscapeScriptString(s string) string {
	return scriptStringEscaper.Replace(s)
}
