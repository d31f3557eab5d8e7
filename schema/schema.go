// Package schema is the Schema Codec of spec.md §2.2: a skip/fetch/free
// trio driven by constructor-keyed type descriptors, generalizing the
// auto-generated auto_skip.h/auto_fetch_ds.h/auto_free_ds.h trio that
// original_source/src/query/query.cpp calls from handle_result. Rather than
// code-generating the whole TL schema (out of scope per spec.md §1
// Non-goals), this package hand-writes descriptors for the handful of
// response shapes needed to exercise and test the Query Subsystem end to
// end, plus a registry any calls-package factory can extend.
package schema

import (
	"fmt"

	"github.com/mtprotogo/tgcore/wire"
)

// Value is a decoded response tree: either a leaf (string, bool, int32,
// int64, []byte), a []Value list, or a *Struct with named fields, mirroring
// the untyped DS* structs the C client fetches into void* and frees
// generically.
type Value interface{}

// Struct is a decoded constructor instance: its name plus its fields keyed
// by field name (a map, so unordered), enough for Query's OnAnswer hooks to
// type switch or field-index into.
type Struct struct {
	Name   string
	Fields map[string]Value
}

// Descriptor knows how to skip past and fetch one constructor's body. There
// is no separate Free step: Go's GC retires the original C trio's explicit
// free_ds_type_any call, which existed only to release the hand-managed DS
// tree (original_source/src/query/query.cpp:538).
type Descriptor interface {
	// Constructor is the bit-exact TL constructor tag this descriptor
	// decodes.
	Constructor() uint32
	// Skip advances r past one instance without building a Value, used
	// to validate a buffer's shape the way skip_type_any does before
	// fetch_ds_type_any runs for real (query.cpp:524-532).
	Skip(r *wire.Reader) error
	// Fetch decodes one instance into a Value, the fetch_ds_type_any
	// counterpart.
	Fetch(r *wire.Reader) (Value, error)
}

// Registry maps constructor tags to descriptors, the Go stand-in for the
// auto-generated type-id switch inside skip_type_any/fetch_ds_type_any.
type Registry struct {
	byTag map[uint32]Descriptor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byTag: make(map[uint32]Descriptor)}
}

// Register adds d, keyed by its own Constructor tag. Registering the same
// tag twice replaces the earlier descriptor, letting calls-package init
// functions override a stub with a fuller decoder.
func (r *Registry) Register(d Descriptor) {
	r.byTag[d.Constructor()] = d
}

// Lookup returns the descriptor for tag, or ok=false if nothing is
// registered for it.
func (r *Registry) Lookup(tag uint32) (Descriptor, bool) {
	d, ok := r.byTag[tag]
	return d, ok
}

// SkipAny peeks the next constructor tag in r and skips past its body,
// the skip_type_any counterpart (query.cpp:525).
func (r *Registry) SkipAny(reader *wire.Reader) error {
	tag, err := reader.PeekUint()
	if err != nil {
		return fmt.Errorf("schema: skip: %w", err)
	}
	d, ok := r.byTag[tag]
	if !ok {
		return fmt.Errorf("schema: skip: unknown constructor 0x%08x", tag)
	}
	return d.Skip(reader)
}

// FetchAny peeks the next constructor tag in r and decodes it into a Value,
// the fetch_ds_type_any counterpart (query.cpp:534).
func (r *Registry) FetchAny(reader *wire.Reader) (Value, error) {
	tag, err := reader.PeekUint()
	if err != nil {
		return nil, fmt.Errorf("schema: fetch: %w", err)
	}
	d, ok := r.byTag[tag]
	if !ok {
		return nil, fmt.Errorf("schema: fetch: unknown constructor 0x%08x", tag)
	}
	return d.Fetch(reader)
}
