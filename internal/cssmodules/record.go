package icm

import (
	"context"
	"fmt"
	"maps"
)

// Tokens maps an authored class name to the runtime class name the
// transform emitted for it.
type Tokens map[string]string

// Load identifies a single module load requested by the host loader.
type Load struct {
	Name    string // unique module identity, e.g. "styles/a.css"
	Address string // where to fetch from; defaults to Name when empty
}

func (l Load) address() string {
	if l.Address != "" {
		return l.Address
	}
	return l.Name
}

// FetchFunc performs the underlying fetch and the CSS-to-record transform
// for one module load.
type FetchFunc func(ctx context.Context, load Load) (*StyleRecord, error)

// StyleRecord is the processed result of one CSS module. Records are
// treated as immutable once published to a Registry.
type StyleRecord struct {
	Name             string
	InjectableSource string
	ExportedTokens   Tokens
	Dependencies     []string
}

// NewStyleRecord builds a normalized record. Duplicate dependencies are
// dropped and a self-reference is rejected.
func NewStyleRecord(name, source string, tokens Tokens, deps []string) (*StyleRecord, error) {
	rec := &StyleRecord{
		Name:             name,
		InjectableSource: source,
		ExportedTokens:   tokens,
		Dependencies:     deps,
	}
	if err := rec.normalize(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *StyleRecord) normalize() error {
	if r.Name == "" {
		return ErrEmptyName
	}
	if r.ExportedTokens == nil {
		r.ExportedTokens = Tokens{}
	}
	if len(r.Dependencies) == 0 {
		r.Dependencies = nil
		return nil
	}
	seen := make(map[string]struct{}, len(r.Dependencies))
	deps := make([]string, 0, len(r.Dependencies))
	for _, dep := range r.Dependencies {
		if dep == r.Name {
			return fmt.Errorf("%w: %s", ErrSelfDependency, r.Name)
		}
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		deps = append(deps, dep)
	}
	r.Dependencies = deps
	return nil
}

func (t Tokens) clone() Tokens {
	if t == nil {
		return Tokens{}
	}
	return maps.Clone(t)
}
