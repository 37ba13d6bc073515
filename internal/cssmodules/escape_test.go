package icm

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"
)

// goQuoteCompat rewrites the one escape JavaScript allows in a
// double-quoted string that Go does not. Escaped backslashes are matched
// first, so `\\'` stays a backslash followed by a quote.
var goQuoteCompat = strings.NewReplacer(`\\`, `\\`, `\'`, `'`)

// evalScriptString evaluates escaped as the body of a "-quoted string
// literal.
func evalScriptString(t *testing.T, escaped string) string {
	t.Helper()
	got, err := strconv.Unquote(`"` + goQuoteCompat.Replace(escaped) + `"`)
	if err != nil {
		t.Fatalf("escaped form %q is not a valid string literal: %v", escaped, err)
	}
	return got
}

func TestEscapeScriptString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", ".a{color:red}", ".a{color:red}"},
		{"Quotes", `a[title="x"]:after{content:'y'}`, `a[title=\"x\"]:after{content:\'y\'}`},
		{"Backslash", `.a{content:"\2014"}`, `.a{content:\"\\2014\"}`},
		{"BackslashQuote", `\'`, `\\\'`},
		{"Controls", "a\fb\bc\nd\te\rf", `a\fb\bc\nd\te\rf`},
		{"LineSeparators", "a\u2028b\u2029c", `a\u2028b\u2029c`},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeScriptString(tt.in)
			if got != tt.want {
				t.Errorf("EscapeScriptString(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if back := evalScriptString(t, got); back != tt.in {
				t.Errorf("round trip of %q = %q", tt.in, back)
			}
		})
	}
}

func FuzzEscapeScriptString(f *testing.F) {
	for _, seed := range []string{
		"",
		"\\\"'\f\b\n\t\r\u2028\u2029",
		"\u2029\r\n\\'\"\t\b\f\u2028",
		`.a{content:"\\'"}` + "\n\u2028",
		"\\\\\\'\\\"",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, in string) {
		if !utf8.ValidString(in) {
			t.Skip()
		}
		got := EscapeScriptString(in)
		if strings.ContainsAny(got, "\n\r\u2028\u2029") {
			t.Fatalf("EscapeScriptString(%q) = %q leaves a raw line terminator", in, got)
		}
		if back := evalScriptString(t, got); back != in {
			t.Errorf("round trip of %q = %q", in, back)
		}
	})
}
