package fast

import (
	"fmt"

	"github.com/finexio/fixwire/internal/field"
)

// Operator is the field transfer operator declared by a template.
type Operator uint8

const (
	OpNone Operator = iota
	OpConstant
	OpDefault
	OpCopy
	OpIncrement
	OpDelta
)

func (o Operator) String() string {
	switch o {
	case OpConstant:
		return "constant"
	case OpDefault:
		return "default"
	case OpCopy:
		return "copy"
	case OpIncrement:
		return "increment"
	case OpDelta:
		return "delta"
	default:
		return "none"
	}
}

// usesPMapBit reports whether the operator claims a presence-map bit.
// Constant fields claim none (required constants are never on the wire);
// delta fields are always on the wire.
func (o Operator) usesPMapBit() bool {
	switch o {
	case OpDefault, OpCopy, OpIncrement:
		return true
	}
	return false
}

// TemplateField declares one field slot: its FIX tag binding, wire type,
// operator, and optional dictionary-declared initial value. Sequence slots
// carry a nested layout instead of a scalar type.
type TemplateField struct {
	Name    string
	Tag     int
	Kind    field.Kind
	Op      Operator
	Initial field.Value // declared default; zero Value means none

	// Sequence: when non-nil this slot is a repeating sequence whose length
	// rides as an unsigned entity, followed by that many segments.
	Sequence []TemplateField
}

// Template maps a template identifier to a message layout.
type Template struct {
	ID      uint32
	Name    string
	MsgType string // the tag-value message type this template mirrors
	Fields  []TemplateField
}

// Registry is the immutable template set for one feed, analogous to a
// Dictionary for the textual encoding. Built once, shared freely.
type Registry struct {
	byID map[uint32]*Template
}

// NewRegistry validates and indexes templates.
func NewRegistry(templates []Template) (*Registry, error) {
	r := &Registry{byID: make(map[uint32]*Template, len(templates))}
	for i := range templates {
		t := &templates[i]
		if t.ID == 0 {
			return nil, fmt.Errorf("fast: template %q has id 0", t.Name)
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("fast: duplicate template id %d", t.ID)
		}
		if err := checkFields(t.Fields, t.Name); err != nil {
			return nil, err
		}
		r.byID[t.ID] = t
	}
	return r, nil
}

func checkFields(fields []TemplateField, where string) error {
	for i := range fields {
		f := &fields[i]
		if f.Name == "" {
			return fmt.Errorf("fast: template %s: unnamed field at slot %d", where, i)
		}
		if f.Sequence != nil {
			if f.Op != OpNone {
				return fmt.Errorf("fast: template %s: sequence %q cannot carry an operator", where, f.Name)
			}
			if err := checkFields(f.Sequence, where+"."+f.Name); err != nil {
				return err
			}
			continue
		}
		switch f.Kind {
		case field.KindInt, field.KindString, field.KindDecimal, field.KindData:
		default:
			return fmt.Errorf("fast: template %s: field %q has unsupported kind %s", where, f.Name, f.Kind)
		}
		if f.Op == OpIncrement && f.Kind != field.KindInt {
			return fmt.Errorf("fast: template %s: increment on non-integer field %q", where, f.Name)
		}
		if f.Op == OpDelta && f.Kind != field.KindInt && f.Kind != field.KindDecimal {
			return fmt.Errorf("fast: template %s: delta on %s field %q", where, f.Kind, f.Name)
		}
		if (f.Op == OpConstant || f.Op == OpDefault) && f.Initial.IsZero() {
			return fmt.Errorf("fast: template %s: %s field %q has no value", where, f.Op, f.Name)
		}
	}
	return nil
}

// ByID looks up a template.
func (r *Registry) ByID(id uint32) (*Template, bool) {
	t, ok := r.byID[id]
	return t, ok
}
