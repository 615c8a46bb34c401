package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gestor/internal/money"
)

// FormState is the modal lifecycle: closed until opened, editing while the
// user types, submitting while the request is in flight.
type FormState int

const (
	FormClosed FormState = iota
	FormEditing
	FormSubmitting
)

var errFormState = errors.New("form: not editable in this state")

// Form drives the create/edit modal for one record type. T is the request
// payload. A zero ID submits as create, a non-zero ID as update.
type Form[T any] struct {
	client     *Client
	createPath string
	updatePath func(id int) string

	state FormState
	id    int
	Value T

	refs map[string]json.RawMessage

	// OnSaved runs after a successful submit, typically the list reload.
	OnSaved func()
}

func NewForm[T any](c *Client, createPath string, updatePath func(id int) string) *Form[T] {
	return &Form[T]{client: c, createPath: createPath, updatePath: updatePath}
}

// Open starts a create flow with the given defaults.
func (f *Form[T]) Open(defaults T) {
	f.id = 0
	f.Value = defaults
	f.state = FormEditing
}

// OpenRecord starts an edit flow over an existing record.
func (f *Form[T]) OpenRecord(id int, record T) {
	f.id = id
	f.Value = record
	f.state = FormEditing
}

// Close abandons the form without submitting.
func (f *Form[T]) Close() {
	f.state = FormClosed
	var zero T
	f.Value = zero
	f.id = 0
}

func (f *Form[T]) State() FormState { return f.state }
func (f *Form[T]) Editing() bool    { return f.state == FormEditing }
func (f *Form[T]) ID() int          { return f.id }

// LoadReference fetches and caches a lookup list the form needs (fornecedores,
// centros de custo...). Cached per form instance.
func (f *Form[T]) LoadReference(ctx context.Context, name, path string) error {
	if _, ok := f.refs[name]; ok {
		return nil
	}
	raw, err := f.client.getRaw(ctx, path)
	if err != nil {
		return err
	}
	if f.refs == nil {
		f.refs = make(map[string]json.RawMessage)
	}
	f.refs[name] = raw
	return nil
}

// Prefill applies reference-derived defaults to the draft (picking a
// fornecedor fills its CNPJ and address). It is a plain mutation; whatever the
// user types afterwards wins.
func (f *Form[T]) Prefill(apply func(*T)) {
	if f.state == FormEditing {
		apply(&f.Value)
	}
}

// Reference decodes a previously loaded lookup list into out.
func (f *Form[T]) Reference(name string, out any) error {
	raw, ok := f.refs[name]
	if !ok {
		return fmt.Errorf("form: reference %q not loaded", name)
	}
	return json.Unmarshal(raw, out)
}

// Submit sends the form. While the request is in flight the form refuses a
// second submit; on failure it returns to editing so the user can fix and
// retry, on success it closes and fires OnSaved.
func (f *Form[T]) Submit(ctx context.Context) error {
	if f.state != FormEditing {
		return errFormState
	}
	f.state = FormSubmitting
	var err error
	if f.id == 0 {
		err = f.client.Post(ctx, f.createPath, f.Value, nil)
	} else {
		err = f.client.Put(ctx, f.updatePath(f.id), f.Value, nil)
	}
	if err != nil {
		f.state = FormEditing
		return err
	}
	f.Close()
	if f.OnSaved != nil {
		f.OnSaved()
	}
	return nil
}

// LineEditor is the repeating-items part of order, quotation and invoice
// forms: a grid of lines plus freight and discount, with a running total.
type LineEditor struct {
	Lines    []money.Line
	Frete    float64
	Desconto float64
}

// NewLineEditor starts with a single empty line, the same way the forms open.
func NewLineEditor() *LineEditor {
	return &LineEditor{Lines: []money.Line{{}}}
}

func (e *LineEditor) AddLine() {
	e.Lines = append(e.Lines, money.Line{})
}

// RemoveLine drops line i but never the last one; the grid always shows at
// least one row.
func (e *LineEditor) RemoveLine(i int) {
	if len(e.Lines) <= 1 || i < 0 || i >= len(e.Lines) {
		return
	}
	e.Lines = append(e.Lines[:i], e.Lines[i+1:]...)
}

// Subtotal of line i, zero when out of range.
func (e *LineEditor) Subtotal(i int) float64 {
	if i < 0 || i >= len(e.Lines) {
		return 0
	}
	return e.Lines[i].Subtotal()
}

// Total is the document total the footer shows.
func (e *LineEditor) Total() float64 {
	return money.OrderTotal(e.Lines, e.Frete, e.Desconto)
}
