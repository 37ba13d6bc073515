package icm

import (
	"context"
	"fmt"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
)

const cssMediaType = "text/css"

// Minifier shrinks CSS without changing what it means.
type Minifier interface {
	Minify(ctx context.Context, src string) (string, error)
}

type MinifierFunc func(ctx context.Context, src string) (string, error)

func (f MinifierFunc) Minify(ctx context.Context, src string) (string, error) { return f(ctx, src) }

// cssMinifier wraps tdewolff/minify, which only rewrites tokens and
// whitespace and never merges or reorders rules.
type cssMinifier struct {
	m *minify.M
}

func NewCSSMinifier() Minifier {
	m := minify.New()
	m.AddFunc(cssMediaType, css.Minify)
	return &cssMinifier{m: m}
}

func (c *cssMinifier) Minify(ctx context.Context, src string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := c.m.String(cssMediaType, src)
	if err != nil {
		return "", fmt.Errorf("error minifying CSS: %w", err)
	}
	return out, nil
}
