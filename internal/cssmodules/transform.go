package icm

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Transformer turns the source of one CSS module into a StyleRecord.
type Transformer interface {
	Transform(name, src string) (*StyleRecord, error)
}

type TransformFunc func(name, src string) (*StyleRecord, error)

func (f TransformFunc) Transform(name, src string) (*StyleRecord, error) { return f(name, src) }

// ModuleTransformer scopes class selectors to the module, the way CSS
// Modules do:
//
//   - ".title" becomes "._<stem>__title___<hash>" and "title" is exported
//   - ":global(.x)" is left unscoped (and the wrapper dropped)
//   - `@import "./other.css";` becomes a dependency and is removed
//
// Imports of absolute URLs are left in place.
type ModuleTransformer struct {
	// HashLength is the number of hex digits of the module hash used in
	// runtime class names. Defaults to 5.
	HashLength int
}

type lexToken struct {
	tt   css.TokenType
	data string
}

func lexCSS(src string) ([]lexToken, error) {
	l := css.NewLexer(parse.NewInput(strings.NewReader(src)))
	var tokens []lexToken
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			return tokens, nil
		}
		tokens = append(tokens, lexToken{tt: tt, data: string(data)})
	}
}

var nonIdentCharsRegex = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func (t ModuleTransformer) Transform(name, src string) (*StyleRecord, error) {
	tokens, err := lexCSS(src)
	if err != nil {
		return nil, fmt.Errorf("error tokenizing %s: %w", name, err)
	}

	hashLen := t.HashLength
	if hashLen <= 0 {
		hashLen = 5
	}
	sum := sha256.Sum256([]byte(name))
	hash := hex.EncodeToString(sum[:])
	if hashLen > len(hash) {
		hashLen = len(hash)
	}
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	prefix := "_" + nonIdentCharsRegex.ReplaceAllString(stem, "_") + "__"
	suffix := "___" + hash[:hashLen]

	tokensOut := Tokens{}
	var deps []string
	var sb strings.Builder

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok.tt == css.AtKeywordToken && strings.EqualFold(tok.data, "@import"):
			end := i + 1
			for end < len(tokens) && tokens[end].tt != css.SemicolonToken {
				end++
			}
			target := importTarget(tokens[i+1 : min(end, len(tokens))])
			if target == "" || isExternalURL(target) {
				for ; i <= end && i < len(tokens); i++ {
					sb.WriteString(tokens[i].data)
				}
				i--
				continue
			}
			deps = append(deps, resolveImport(name, target))
			i = end
			// swallow the line break after the removed rule
			if i+1 < len(tokens) && tokens[i+1].tt == css.WhitespaceToken {
				i++
			}

		case tok.tt == css.ColonToken && i+1 < len(tokens) && tokens[i+1].tt == css.FunctionToken &&
			(strings.EqualFold(tokens[i+1].data, "global(") || strings.EqualFold(tokens[i+1].data, "local(")):
			global := strings.EqualFold(tokens[i+1].data, "global(")
			i += 2
			depth := 1
			for ; i < len(tokens); i++ {
				inner := tokens[i]
				if inner.tt == css.FunctionToken || inner.tt == css.LeftParenthesisToken {
					depth++
				} else if inner.tt == css.RightParenthesisToken {
					depth--
					if depth == 0 {
						break
					}
				}
				if !global && isClassSelector(tokens, i) {
					sb.WriteString(".")
					i++
					sb.WriteString(scopeClass(tokensOut, tokens[i].data, prefix, suffix))
					continue
				}
				sb.WriteString(inner.data)
			}

		case isClassSelector(tokens, i):
			sb.WriteString(".")
			i++
			sb.WriteString(scopeClass(tokensOut, tokens[i].data, prefix, suffix))

		default:
			sb.WriteString(tok.data)
		}
	}

	return NewStyleRecord(name, sb.String(), tokensOut, deps)
}

func isClassSelector(tokens []lexToken, i int) bool {
	return tokens[i].tt == css.DelimToken && tokens[i].data == "." &&
		i+1 < len(tokens) && tokens[i+1].tt == css.IdentToken
}

func scopeClass(tokens Tokens, class, prefix, suffix string) string {
	if scoped, ok := tokens[class]; ok {
		return scoped
	}
	scoped := prefix + class + suffix
	tokens[class] = scoped
	return scoped
}

// importTarget extracts the URL of an @import prelude.
func importTarget(prelude []lexToken) string {
	for _, t := range prelude {
		switch t.tt {
		case css.StringToken:
			return unquoteCSS(t.data)
		case css.URLToken:
			s := strings.TrimSpace(t.data)
			s = s[strings.IndexByte(s, '(')+1:]
			s = strings.TrimSuffix(s, ")")
			return unquoteCSS(strings.TrimSpace(s))
		case css.FunctionToken:
			if !strings.EqualFold(t.data, "url(") {
				return ""
			}
		case css.WhitespaceToken, css.CommentToken:
			continue
		default:
			return ""
		}
	}
	return ""
}

func unquoteCSS(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func isExternalURL(s string) bool {
	return strings.Contains(s, "://") || strings.HasPrefix(s, "//") || strings.HasPrefix(s, "data:")
}

func resolveImport(from, target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}
	return path.Join(path.Dir(from), target)
}
