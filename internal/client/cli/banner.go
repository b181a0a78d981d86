package cli

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// MessageKind selects how a banner message is rendered.
type MessageKind int

const (
	KindError MessageKind = iota
	KindSuccess
)

// Banner shows one status message at a time and hides it after ttl.
type Banner struct {
	w   io.Writer
	ttl time.Duration

	mu    sync.Mutex
	text  string
	kind  MessageKind
	gen   int
	timer *time.Timer
}

func NewBanner(w io.Writer, ttl time.Duration) *Banner {
	return &Banner{w: w, ttl: ttl}
}

// Show prints msg and replaces any visible message.
func (b *Banner) Show(msg string, kind MessageKind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	b.text, b.kind = msg, kind

	fmt.Fprintln(b.w, render(msg, kind))

	gen := b.gen
	b.timer = time.AfterFunc(b.ttl, func() { b.dismiss(gen) })
}

func (b *Banner) dismiss(gen int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen == gen {
		b.text = ""
		b.timer = nil
	}
}

// Current returns the visible message, if any.
func (b *Banner) Current() (string, MessageKind, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, b.kind, b.text != ""
}

// Stop cancels the pending dismissal.
func (b *Banner) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func render(msg string, kind MessageKind) string {
	if kind == KindSuccess {
		return ">_ " + msg + " [OK]"
	}
	return ">_ " + msg
}
