package dom

import (
	"errors"
	"testing"

	"github.com/starford/blockpad/internal/apperr"
)

func TestPageLookup(t *testing.T) {
	p := NewPage("editorjs", "ejOutput")
	if _, ok := p.ElementByID("editorjs"); !ok {
		t.Fatal("expected editorjs element")
	}
	if _, ok := p.ElementByID("missing"); ok {
		t.Fatal("missing element should not resolve")
	}
	if Lookup(p, "missing") != nil {
		t.Error("Lookup should return nil for missing element")
	}
	if Lookup(nil, "editorjs") != nil {
		t.Error("Lookup should return nil for nil document")
	}
}

func TestSetTextAndChildrenReplaceEachOther(t *testing.T) {
	p := NewPage("out")
	el := Lookup(p, "out")
	el.ReplaceChildren(Node{Tag: "div"})
	el.SetText("hello")
	if el.Text() != "hello" || len(el.Children()) != 0 {
		t.Fatalf("text=%q children=%d", el.Text(), len(el.Children()))
	}
	el.ReplaceChildren(Node{Tag: "p"}, Node{Tag: "p"})
	if el.Text() != "" || len(el.Children()) != 2 {
		t.Fatalf("text=%q children=%d", el.Text(), len(el.Children()))
	}
	if p.Mutations() != 3 {
		t.Errorf("mutations = %d, want 3", p.Mutations())
	}
}

func TestDispatch(t *testing.T) {
	p := NewPage("btn")
	var calls []int
	el := Lookup(p, "btn")
	el.AddEventListener(EventClick, func() error {
		calls = append(calls, 1)
		return nil
	})
	el.AddEventListener(EventClick, func() error {
		calls = append(calls, 2)
		return nil
	})

	if err := p.Dispatch("btn", EventClick); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("calls = %v", calls)
	}
	if err := p.Dispatch("nope", EventClick); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDispatchReportsListenerErrors(t *testing.T) {
	p := NewPage("btn")
	el := Lookup(p, "btn")
	boom := errors.New("boom")
	ran := false
	el.AddEventListener(EventClick, func() error { return boom })
	el.AddEventListener(EventClick, func() error {
		ran = true
		return nil
	})

	if err := p.Dispatch("btn", EventClick); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the listener error", err)
	}
	if !ran {
		t.Error("a failing listener stopped later listeners")
	}
}
