package icm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineProcess(t *testing.T) {
	backend := &recordingBackend{}
	p := NewPipeline(NewRegistry(), backend)

	tokens, err := p.Process(context.Background(), Load{Name: "a.css"}, staticFetch(StyleRecord{
		InjectableSource: "._a__x___1{}",
		ExportedTokens:   Tokens{"x": "_a__x___1"},
		Dependencies:     []string{"b.css", "b.css"},
	}))
	require.NoError(t, err)
	assert.Equal(t, Tokens{"x": "_a__x___1"}, tokens)

	rec, ok := p.Registry().Get("a.css")
	require.True(t, ok, "record should be registered under the load name")
	assert.Equal(t, []string{"b.css"}, rec.Dependencies)
	assert.Equal(t, []string{"a.css"}, backend.names())

	// callers only get a copy of the tokens
	tokens["x"] = "changed"
	assert.Equal(t, "_a__x___1", rec.ExportedTokens["x"])
}

func TestPipelineFetchErrorPublishesNothing(t *testing.T) {
	backend := &recordingBackend{}
	p := NewPipeline(NewRegistry(), backend)

	fetchErr := errors.New("boom")
	_, err := p.Process(context.Background(), Load{Name: "a.css"}, func(context.Context, Load) (*StyleRecord, error) {
		return nil, fetchErr
	})

	assert.Same(t, fetchErr, err, "fetch errors are returned unchanged")
	assert.Equal(t, 0, p.Registry().Len())
	assert.Empty(t, backend.names())
}

func TestPipelineOverwrite(t *testing.T) {
	p := NewPipeline(NewRegistry(), &recordingBackend{})
	ctx := context.Background()

	_, err := p.Process(ctx, Load{Name: "a.css"}, staticFetch(StyleRecord{InjectableSource: "old"}))
	require.NoError(t, err)
	_, err = p.Process(ctx, Load{Name: "b.css"}, staticFetch(StyleRecord{InjectableSource: "b"}))
	require.NoError(t, err)
	_, err = p.Process(ctx, Load{Name: "a.css"}, staticFetch(StyleRecord{InjectableSource: "new"}))
	require.NoError(t, err)

	rec, _ := p.Registry().Get("a.css")
	assert.Equal(t, "new", rec.InjectableSource)
	assert.Equal(t, []string{"a.css", "b.css"}, p.Registry().AllNames())
}

func TestPipelineDefaultFetch(t *testing.T) {
	var fetched []Load
	fetch := func(_ context.Context, load Load) (*StyleRecord, error) {
		fetched = append(fetched, load)
		return &StyleRecord{Name: load.Name}, nil
	}

	p := NewPipeline(NewRegistry(), &recordingBackend{}, WithDefaultFetch(fetch))
	_, err := p.Process(context.Background(), Load{Name: "a.css", Address: "/static/a.css"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []Load{{Name: "a.css", Address: "/static/a.css"}}, fetched)

	bare := NewPipeline(NewRegistry(), &recordingBackend{})
	_, err = bare.Process(context.Background(), Load{Name: "a.css"}, nil)
	assert.Error(t, err)
}

func TestPipelineRejectsInvalidRecords(t *testing.T) {
	p := NewPipeline(NewRegistry(), &recordingBackend{})
	ctx := context.Background()

	_, err := p.Process(ctx, Load{Name: "a.css"}, staticFetch(StyleRecord{Dependencies: []string{"a.css"}}))
	assert.ErrorIs(t, err, ErrSelfDependency)

	_, err = p.Process(ctx, Load{Name: "a.css"}, func(context.Context, Load) (*StyleRecord, error) { return nil, nil })
	assert.Error(t, err)

	assert.Equal(t, 0, p.Registry().Len())
}

func TestPipelineBackendError(t *testing.T) {
	backendErr := errors.New("backend failed")
	p := NewPipeline(NewRegistry(), &recordingBackend{err: backendErr})

	_, err := p.Process(context.Background(), Load{Name: "a.css"}, staticFetch(StyleRecord{}))
	assert.ErrorIs(t, err, backendErr)
}
