package icm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fixedMinifier records its input and returns out.
type fixedMinifier struct {
	in  string
	out string
}

func (m *fixedMinifier) Minify(_ context.Context, src string) (string, error) {
	m.in = src
	return m.out, nil
}

func processAll(t *testing.T, p *Pipeline, records ...StyleRecord) []Load {
	t.Helper()
	var loads []Load
	for _, rec := range records {
		load := Load{Name: rec.Name}
		_, err := p.Process(context.Background(), load, staticFetch(rec))
		require.NoError(t, err)
		loads = append(loads, load)
	}
	return loads
}

func TestBundleFinalize(t *testing.T) {
	minifier := &fixedMinifier{out: ".a{color:red}.b{color:blue}"}
	bundle := NewBundleBackend(minifier, nil)
	p := NewPipeline(NewRegistry(), bundle)

	loads := processAll(t, p,
		StyleRecord{Name: "a.css", InjectableSource: ".a{color:red}"},
		StyleRecord{Name: "b.css", InjectableSource: ".b{color:blue}"},
	)

	artifact, err := bundle.Finalize(context.Background(), loads, BundleOptions{})
	require.NoError(t, err)
	assert.Equal(t, ".a{color:red}\n.b{color:blue}", minifier.in)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "bundle_two_modules", []byte(artifact))
}

func TestBundleEscapesNamesAndCSS(t *testing.T) {
	minifier := &fixedMinifier{out: `a::after{content:"it's"}`}
	bundle := NewBundleBackend(minifier, nil)
	p := NewPipeline(NewRegistry(), bundle)
	loads := processAll(t, p, StyleRecord{Name: "it's.css", InjectableSource: "x"})

	artifact, err := bundle.Finalize(context.Background(), loads, BundleOptions{SystemGlobal: "SystemJS"})
	require.NoError(t, err)
	assert.Contains(t, artifact, `SystemJS.register('it\'s.css', [], `)
	assert.Contains(t, artifact, `('a::after{content:\"it\'s\"}');`)
}

func TestBundleWarnings(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	bundle := NewBundleBackend(&fixedMinifier{}, zap.New(core).Sugar())

	buildCSS := false
	_, err := bundle.Finalize(context.Background(), nil, BundleOptions{BuildCSS: &buildCSS, SourceMaps: true})
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("opting out of buildCSS not yet supported").Len())
	assert.Equal(t, 1, logs.FilterMessage("source maps not yet supported").Len())
}

func TestBundleSeparateCSS(t *testing.T) {
	dir := t.TempDir()
	bundle := NewBundleBackend(&fixedMinifier{out: ".a{color:red}"}, nil)
	p := NewPipeline(NewRegistry(), bundle)
	loads := processAll(t, p, StyleRecord{Name: "a.css", InjectableSource: ".a { color: red }"})

	artifact, err := bundle.Finalize(context.Background(), loads, BundleOptions{
		SeparateCSS: true,
		OutFile:     filepath.Join(dir, "bundle.js"),
	})
	require.NoError(t, err)
	assert.Empty(t, artifact)

	content, err := os.ReadFile(filepath.Join(dir, "bundle.css"))
	require.NoError(t, err)
	assert.Equal(t, ".a{color:red}", string(content))
}

func TestBundleSeparateCSSRequiresOutFile(t *testing.T) {
	bundle := NewBundleBackend(&fixedMinifier{}, nil)
	_, err := bundle.Finalize(context.Background(), nil, BundleOptions{SeparateCSS: true})
	assert.Error(t, err)
}

func TestBundleFinalizeOnce(t *testing.T) {
	bundle := NewBundleBackend(&fixedMinifier{}, nil)
	ctx := context.Background()

	_, err := bundle.Finalize(ctx, nil, BundleOptions{})
	require.NoError(t, err)

	_, err = bundle.Finalize(ctx, nil, BundleOptions{})
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	err = bundle.OnRecordReady(ctx, &StyleRecord{Name: "late.css"})
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestBundleMinifierError(t *testing.T) {
	minErr := errors.New("bad css")
	bundle := NewBundleBackend(MinifierFunc(func(context.Context, string) (string, error) {
		return "", minErr
	}), nil)

	_, err := bundle.Finalize(context.Background(), nil, BundleOptions{})
	assert.ErrorIs(t, err, minErr)
}

func TestCSSMinifier(t *testing.T) {
	out, err := NewCSSMinifier().Minify(context.Background(), ".a {\n  color: red;\n}\n")
	require.NoError(t, err)
	assert.Equal(t, ".a{color:red}", out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewCSSMinifier().Minify(ctx, ".a{}")
	assert.ErrorIs(t, err, context.Canceled)
}
