// Package patch applies JSON Patch documents (RFC 6902) to plain Go values
// through an explicit table of addressable fields.
//
// A document is applied all-or-nothing: the first failing operation aborts the
// whole patch and the caller keeps its original value.
package patch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Op is a patch operation name.
type Op string

// Supported operations.
const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
	OpMove    Op = "move"
	OpCopy    Op = "copy"
	OpTest    Op = "test"
)

// Operation is a single entry of a patch document.
type Operation struct {
	Op    Op              `json:"op"`
	Path  string          `json:"path"`
	From  string          `json:"from,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Document is an ordered list of operations.
type Document []Operation

// Reason classifies why an operation was rejected.
type Reason string

// Rejection reasons.
const (
	ReasonUnknownField   Reason = "unknown-field"
	ReasonImmutableField Reason = "immutable-field"
	ReasonInvalidValue   Reason = "invalid-value"
	ReasonMissingValue   Reason = "missing-value"
	ReasonTestFailed     Reason = "test-failed"
	ReasonUnsupportedOp  Reason = "unsupported-op"
)

// Error reports the operation that caused a document to be rejected.
type Error struct {
	Index  int
	Op     Op
	Path   string
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("patch operation %d (%s %s): %s", e.Index, e.Op, e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Field is one addressable member of T.
type Field[T any] struct {
	Name     string
	ReadOnly bool

	get  func(*T) any
	set  func(*T, json.RawMessage) error
	zero func(*T)
	test func(*T, json.RawMessage) (bool, error)
}

// Member declares a writable field of T backed by the value ptr returns.
func Member[T any, V comparable](name string, ptr func(*T) *V) Field[T] {
	return Field[T]{
		Name: name,
		get:  func(t *T) any { return *ptr(t) },
		set: func(t *T, raw json.RawMessage) error {
			if isNull(raw) {
				var zero V
				*ptr(t) = zero
				return nil
			}
			var v V
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			*ptr(t) = v
			return nil
		},
		zero: func(t *T) {
			var zero V
			*ptr(t) = zero
		},
		test: func(t *T, raw json.RawMessage) (bool, error) {
			var v V
			if !isNull(raw) {
				if err := json.Unmarshal(raw, &v); err != nil {
					return false, err
				}
			}
			return *ptr(t) == v, nil
		},
	}
}

// ReadOnly declares a field that may be tested or used as a copy source but
// never written.
func ReadOnly[T any, V comparable](name string, ptr func(*T) *V) Field[T] {
	f := Member(name, ptr)
	f.ReadOnly = true
	return f
}

// Schema is the set of fields a document may address on T.
type Schema[T any] struct {
	fields []Field[T]
	byName map[string]int
}

// NewSchema builds a schema. Field names are matched case-insensitively.
func NewSchema[T any](fields ...Field[T]) *Schema[T] {
	s := &Schema[T]{
		fields: fields,
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		s.byName[strings.ToLower(f.Name)] = i
	}
	return s
}

// Names returns the declared field names in declaration order.
func (s *Schema[T]) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Apply runs doc against a copy of target and returns the patched copy. On
// error target is returned unchanged.
func (s *Schema[T]) Apply(doc Document, target T) (T, error) {
	work := target
	for i, op := range doc {
		if err := s.apply(&work, op); err != nil {
			err.Index = i
			err.Op = op.Op
			if err.Path == "" {
				err.Path = op.Path
			}
			return target, err
		}
	}
	return work, nil
}

func (s *Schema[T]) apply(t *T, op Operation) *Error {
	switch op.Op {
	case OpAdd, OpReplace:
		f, err := s.writable(op.Path)
		if err != nil {
			return err
		}
		if op.Value == nil {
			return &Error{Reason: ReasonMissingValue}
		}
		if err := f.set(t, op.Value); err != nil {
			return &Error{Reason: ReasonInvalidValue, Err: err}
		}
	case OpRemove:
		f, err := s.writable(op.Path)
		if err != nil {
			return err
		}
		f.zero(t)
	case OpTest:
		f, err := s.lookup(op.Path)
		if err != nil {
			return err
		}
		if op.Value == nil {
			return &Error{Reason: ReasonMissingValue}
		}
		ok, terr := f.test(t, op.Value)
		if terr != nil {
			return &Error{Reason: ReasonInvalidValue, Err: terr}
		}
		if !ok {
			return &Error{Reason: ReasonTestFailed}
		}
	case OpMove, OpCopy:
		from, err := s.lookup(op.From)
		if err != nil {
			err.Path = op.From
			return err
		}
		if op.Op == OpMove && from.ReadOnly {
			return &Error{Path: op.From, Reason: ReasonImmutableField}
		}
		to, err := s.writable(op.Path)
		if err != nil {
			return err
		}
		raw, merr := json.Marshal(from.get(t))
		if merr != nil {
			return &Error{Reason: ReasonInvalidValue, Err: merr}
		}
		if op.Op == OpMove {
			from.zero(t)
		}
		if err := to.set(t, raw); err != nil {
			return &Error{Reason: ReasonInvalidValue, Err: err}
		}
	default:
		return &Error{Reason: ReasonUnsupportedOp}
	}
	return nil
}

func (s *Schema[T]) writable(path string) (Field[T], *Error) {
	f, err := s.lookup(path)
	if err != nil {
		return f, err
	}
	if f.ReadOnly {
		return f, &Error{Reason: ReasonImmutableField}
	}
	return f, nil
}

// lookup resolves a single-segment JSON pointer such as "/nombre".
func (s *Schema[T]) lookup(path string) (Field[T], *Error) {
	name, ok := strings.CutPrefix(path, "/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return Field[T]{}, &Error{Reason: ReasonUnknownField}
	}
	name = strings.NewReplacer("~1", "/", "~0", "~").Replace(name)
	i, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return Field[T]{}, &Error{Reason: ReasonUnknownField}
	}
	return s.fields[i], nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
