// Package dom models the page an editor is embedded in: a flat set of
// elements addressed by stable ids, each owning a small node subtree.
package dom

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/starford/blockpad/internal/apperr"
)

// Event names understood by Dispatch.
const (
	EventClick = "click"
)

// Node is a detached element subtree produced by whoever owns an element.
type Node struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []Node            `json:"children,omitempty"`
}

// Element is one addressable element on the page.
type Element interface {
	ID() string
	Text() string
	// SetText replaces the element's content with a single text value.
	SetText(text string)
	Children() []Node
	// ReplaceChildren replaces the element's whole subtree.
	ReplaceChildren(nodes ...Node)
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	// AddEventListener registers fn for event. An error returned by fn is
	// reported to whoever dispatched the event.
	AddEventListener(event string, fn func() error)
}

// Document locates elements by id.
type Document interface {
	ElementByID(id string) (Element, bool)
}

// Page is an in-memory Document. It is safe for concurrent use.
type Page struct {
	mu        sync.Mutex
	elements  map[string]*element
	mutations int
}

// NewPage creates a page containing one empty element per id.
func NewPage(ids ...string) *Page {
	p := &Page{elements: make(map[string]*element, len(ids))}
	for _, id := range ids {
		if id == "" {
			continue
		}
		p.elements[id] = &element{page: p, id: id, attrs: map[string]string{}, listeners: map[string][]func() error{}}
	}
	return p
}

// ElementByID implements Document.
func (p *Page) ElementByID(id string) (Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[id]
	if !ok {
		return nil, false
	}
	return el, true
}

// IDs returns the ids of every element on the page, sorted.
func (p *Page) IDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.elements))
	for id := range p.elements {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Mutations reports how many content-changing calls the page has seen.
func (p *Page) Mutations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mutations
}

// Dispatch fires event on the element with the given id. Listeners run
// synchronously on the caller's goroutine in registration order; their
// errors are joined.
func (p *Page) Dispatch(id, event string) error {
	p.mu.Lock()
	el, ok := p.elements[id]
	var fns []func() error
	if ok {
		fns = append(fns, el.listeners[event]...)
	}
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("dom: element %q: %w", id, apperr.ErrNotFound)
	}
	var errs []error
	for _, fn := range fns {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type element struct {
	page      *Page
	id        string
	text      string
	children  []Node
	attrs     map[string]string
	listeners map[string][]func() error
}

func (e *element) ID() string { return e.id }

func (e *element) Text() string {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.text
}

func (e *element) SetText(text string) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.text = text
	e.children = nil
	e.page.mutations++
}

func (e *element) Children() []Node {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	out := make([]Node, len(e.children))
	copy(out, e.children)
	return out
}

func (e *element) ReplaceChildren(nodes ...Node) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.children = append([]Node(nil), nodes...)
	e.text = ""
	e.page.mutations++
}

func (e *element) Attr(name string) (string, bool) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	v, ok := e.attrs[name]
	return v, ok
}

func (e *element) SetAttr(name, value string) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.attrs[name] = value
	e.page.mutations++
}

func (e *element) AddEventListener(event string, fn func() error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], fn)
}

// Lookup resolves id against doc once, returning nil when either the
// document or the element is absent.
func Lookup(doc Document, id string) Element {
	if doc == nil || id == "" {
		return nil
	}
	el, ok := doc.ElementByID(id)
	if !ok {
		return nil
	}
	return el
}
