package icm

import (
	"html/template"
	"strings"
	"sync"
)

const (
	ContainerTagName   = "css-modules"
	ContainerElementID = "__css-modules"
)

// Container is the element the live backend renders into. Only the live
// backend writes to it.
type Container interface {
	// ReplaceContents swaps the entire child content of the container.
	ReplaceContents(markup string) error
}

// Document is an in-memory container element: the state a page's
// <css-modules> element should hold. Pages embed it with HeadHTML and
// browsers keep it in sync through the dev server.
type Document struct {
	mu           sync.RWMutex
	markup       string
	replacements int
	listeners    []func(markup string)
}

func NewDocument() *Document {
	return &Document{}
}

func (d *Document) ReplaceContents(markup string) error {
	d.mu.Lock()
	d.markup = markup
	d.replacements++
	listeners := d.listeners
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(markup)
	}
	return nil
}

// OnReplace registers fn to run after every replacement.
func (d *Document) OnReplace(fn func(markup string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

func (d *Document) Markup() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.markup
}

// Replacements counts ReplaceContents calls.
func (d *Document) Replacements() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.replacements
}

// HeadHTML renders the container element with its current contents, for
// server-side inclusion in a page head.
func (d *Document) HeadHTML() template.HTML {
	var sb strings.Builder
	sb.WriteString(`<`)
	sb.WriteString(ContainerTagName)
	sb.WriteString(` id="`)
	sb.WriteString(ContainerElementID)
	sb.WriteString(`">`)
	sb.WriteString(d.Markup())
	sb.WriteString(`</`)
	sb.WriteString(ContainerTagName)
	sb.WriteString(`>`)
	return template.HTML(sb.String())
}
