package icm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const DefaultSystemGlobal = "System"

// BundleOptions are the host's compile/output options recognized at bundle
// time.
type BundleOptions struct {
	// BuildCSS defaults to true. Opting out is not supported yet; false
	// only produces a warning.
	BuildCSS *bool `yaml:"build_css" toml:"build_css"`

	// SeparateCSS writes the CSS next to OutFile instead of returning an
	// injector script.
	SeparateCSS bool `yaml:"separate_css" toml:"separate_css"`

	// SourceMaps is not supported; requesting it produces a warning.
	SourceMaps bool `yaml:"source_maps" toml:"source_maps"`

	OutFile string `yaml:"out_file" toml:"out_file"`

	// SystemGlobal names the module registry object used in stub
	// registrations. Defaults to "System".
	SystemGlobal string `yaml:"system_global" toml:"system_global"`
}

func (o BundleOptions) systemGlobal() string {
	if o.SystemGlobal == "" {
		return DefaultSystemGlobal
	}
	return o.SystemGlobal
}

// Appends a <style> element to the document head holding the CSS text it
// is called with.
const cssInjectFunction = `(function(c){
  var d=document,a="appendChild",i="styleSheet",s=d.createElement("style");
  d.head[a](s);
  s[i]?s[i].cssText=c:s[a](d.createTextNode(c));
})`

func emptyRegistration(system, name string) string {
	return system + ".register('" + EscapeScriptString(name) + "', [], function() { return { setters: [], execute: function() {}}});"
}

// BundleBackend accumulates every processed stylesheet of one build and
// emits them as a single artifact. Sources are kept in call order; the
// host already loads modules in dependency order during a build.
type BundleBackend struct {
	mu        sync.Mutex
	sources   []string
	finalized bool
	minifier  Minifier
	logger    Logger
}

func NewBundleBackend(minifier Minifier, logger Logger) *BundleBackend {
	if minifier == nil {
		minifier = NewCSSMinifier()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &BundleBackend{minifier: minifier, logger: logger}
}

func (b *BundleBackend) OnRecordReady(_ context.Context, rec *StyleRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized {
		return fmt.Errorf("error adding %s: %w", rec.Name, ErrAlreadyFinalized)
	}
	b.sources = append(b.sources, rec.InjectableSource)
	return nil
}

// Finalize drains the accumulated CSS, minifies it and emits either the
// injector artifact or a separate CSS file. It may be called once.
func (b *BundleBackend) Finalize(ctx context.Context, loads []Load, opts BundleOptions) (string, error) {
	b.mu.Lock()
	if b.finalized {
		b.mu.Unlock()
		return "", ErrAlreadyFinalized
	}
	b.finalized = true
	sources := b.sources
	b.sources = nil
	b.mu.Unlock()

	if opts.BuildCSS != nil && !*opts.BuildCSS {
		b.logger.Warnf("opting out of buildCSS not yet supported")
	}
	if opts.SourceMaps {
		b.logger.Warnf("source maps not yet supported")
	}

	cssOutput, err := b.minifier.Minify(ctx, strings.Join(sources, "\n"))
	if err != nil {
		return "", err
	}

	if opts.SeparateCSS {
		outFile, err := separateCSSPath(opts.OutFile)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(outFile, []byte(cssOutput), 0644); err != nil {
			return "", fmt.Errorf("error writing separate CSS file: %w", err)
		}
		b.logger.Infof("wrote %d bytes of CSS to %s", len(cssOutput), outFile)
		return "", nil
	}

	system := opts.systemGlobal()
	registrations := make([]string, 0, len(loads))
	for _, load := range loads {
		registrations = append(registrations, emptyRegistration(system, load.Name))
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(registrations, "\n"))
	sb.WriteString(cssInjectFunction)
	sb.WriteString("('")
	sb.WriteString(EscapeScriptString(cssOutput))
	sb.WriteString("');")
	return sb.String(), nil
}

// separateCSSPath swaps the extension of outFile for ".css".
func separateCSSPath(outFile string) (string, error) {
	if outFile == "" {
		return "", fmt.Errorf("error deriving CSS path: separate CSS requires an output file")
	}
	abs, err := filepath.Abs(outFile)
	if err != nil {
		return "", fmt.Errorf("error resolving output file: %w", err)
	}
	return strings.TrimSuffix(abs, filepath.Ext(abs)) + ".css", nil
}
