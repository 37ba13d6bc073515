package icm

import (
	"fmt"
	"regexp"
	"strings"
)

// EmbedStrategy selects how the live backend embeds stylesheets.
type EmbedStrategy int

const (
	// StrategyInline writes one <style> element per module.
	StrategyInline EmbedStrategy = iota
	// StrategyExternal writes one <link> element per module pointing at a
	// transient resource URL.
	StrategyExternal
)

func (s EmbedStrategy) String() string {
	switch s {
	case StrategyInline:
		return "inline"
	case StrategyExternal:
		return "external"
	}
	return fmt.Sprintf("EmbedStrategy(%d)", int(s))
}

// Capabilities describes what the embedding host supports.
type Capabilities struct {
	ObjectURLs bool
	Blobs      bool
	UserAgent  string
}

// ServerCapabilities are the capabilities of the dev server's own
// resource store.
var ServerCapabilities = Capabilities{ObjectURLs: true, Blobs: true}

// PhantomJS advertises object URLs but does not load stylesheets from them.
var brokenHostRegex = regexp.MustCompile(`(?i)phantomjs`)

// DetectStrategy picks external embedding only when the host fully
// supports it.
func DetectStrategy(caps Capabilities) EmbedStrategy {
	if !caps.ObjectURLs || !caps.Blobs || brokenHostRegex.MatchString(caps.UserAgent) {
		return StrategyInline
	}
	return StrategyExternal
}

// ParseStrategy parses "auto", "inline" or "external". For "auto" (or
// empty) the strategy is detected from caps.
func ParseStrategy(s string, caps Capabilities) (EmbedStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DetectStrategy(caps), nil
	case "inline":
		return StrategyInline, nil
	case "external":
		return StrategyExternal, nil
	}
	return StrategyInline, fmt.Errorf("unknown embed strategy %q", s)
}
