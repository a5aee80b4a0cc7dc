package export

import (
	"context"
	"errors"
	"log/slog"
)

// Fallback presents the view some other way when an export fails
type Fallback interface {
	Present(ctx context.Context, reason error) error
}

// FallbackFunc adapts a function to Fallback
type FallbackFunc func(ctx context.Context, reason error) error

func (f FallbackFunc) Present(ctx context.Context, reason error) error {
	return f(ctx, reason)
}

// Result is either a finished document or the reason there is none
type Result struct {
	doc *Document
	err error
}

// Ok wraps a finished document
func Ok(doc *Document) Result {
	if doc == nil {
		return Err(errors.New("empty document"))
	}
	return Result{doc: doc}
}

// Err wraps an export failure
func Err(reason error) Result {
	if reason == nil {
		reason = errors.New("unknown export failure")
	}
	return Result{err: reason}
}

// Document returns the document and whether the export succeeded
func (r Result) Document() (*Document, bool) {
	return r.doc, r.err == nil
}

// Err returns the failure reason, or nil on success
func (r Result) Err() error {
	return r.err
}

// OrElse runs fb when the export failed. The reason is logged, not returned;
// only a failing fallback produces an error.
func (r Result) OrElse(ctx context.Context, fb Fallback) (*Document, error) {
	if r.err == nil {
		return r.doc, nil
	}
	slog.Warn("PDF export failed, falling back", "reason", r.err)
	if fb == nil {
		return nil, r.err
	}
	return nil, fb.Present(ctx, r.err)
}
