// Package dict holds the versioned schema a codec validates against: field
// definitions, reusable components, repeating groups, and message layouts for
// one protocol revision.
//
// Dictionaries are built once from static tables (the output of the offline
// schema generator), validated for internal consistency, and never mutated
// afterwards, so a single Dictionary is safely shared by any number of
// concurrent sessions.
package dict

import (
	"fmt"

	"github.com/finexio/fixwire/internal/field"
)

// FieldDef describes one field tag.
type FieldDef struct {
	Tag  int
	Name string
	Kind field.Kind
	// Enum restricts legal wire values when non-nil, keyed by wire token.
	Enum map[string]string
	// LengthTag pairs a data field with the tag carrying its byte length.
	LengthTag int
}

// Item is one slot in a message, component, or group layout. Exactly one of
// Tag, Component, Group is set.
type Item struct {
	Tag       int
	Component string
	Group     *GroupDef
	Required  bool
}

// GroupDef describes a repeating group: the count field tag and the layout of
// one instance. The first item is the delimiter that starts each instance.
type GroupDef struct {
	CountTag int
	Items    []Item
}

// ComponentDef is a named reusable layout fragment.
type ComponentDef struct {
	Name  string
	Items []Item
}

// MessageDef describes one message type and its body layout. The standard
// header and trailer are implicit; layouts list body fields only.
type MessageDef struct {
	MsgType string
	Name    string
	Items   []Item
}

// Dictionary is the immutable schema for one protocol revision.
type Dictionary struct {
	version    string
	fields     map[int]*FieldDef
	components map[string]*ComponentDef
	messages   map[string]*MessageDef
}

// New builds a Dictionary and validates the tables for internal consistency.
// Inconsistent tables are a startup defect, never a runtime condition, so any
// error here should abort process initialization.
func New(version string, fields []FieldDef, components []ComponentDef, messages []MessageDef) (*Dictionary, error) {
	d := &Dictionary{
		version:    version,
		fields:     make(map[int]*FieldDef, len(fields)),
		components: make(map[string]*ComponentDef, len(components)),
		messages:   make(map[string]*MessageDef, len(messages)),
	}
	for i := range fields {
		f := &fields[i]
		if f.Tag <= 0 {
			return nil, fmt.Errorf("dict %s: field %q has non-positive tag %d", version, f.Name, f.Tag)
		}
		if f.Kind == field.KindUnknown {
			return nil, fmt.Errorf("dict %s: field %d (%s) has no kind", version, f.Tag, f.Name)
		}
		if _, dup := d.fields[f.Tag]; dup {
			return nil, fmt.Errorf("dict %s: duplicate field tag %d", version, f.Tag)
		}
		d.fields[f.Tag] = f
	}
	for i := range components {
		c := &components[i]
		if _, dup := d.components[c.Name]; dup {
			return nil, fmt.Errorf("dict %s: duplicate component %q", version, c.Name)
		}
		d.components[c.Name] = c
	}
	for i := range messages {
		m := &messages[i]
		if m.MsgType == "" {
			return nil, fmt.Errorf("dict %s: message %q has empty type token", version, m.Name)
		}
		if _, dup := d.messages[m.MsgType]; dup {
			return nil, fmt.Errorf("dict %s: duplicate message type %q", version, m.MsgType)
		}
		d.messages[m.MsgType] = m
	}
	// Validate layout references after all tables are registered.
	for _, c := range d.components {
		if err := d.checkItems(c.Items, "component "+c.Name); err != nil {
			return nil, err
		}
	}
	for _, m := range d.messages {
		if err := d.checkItems(m.Items, "message "+m.MsgType); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Dictionary) checkItems(items []Item, where string) error {
	for _, it := range items {
		switch {
		case it.Tag != 0:
			if _, ok := d.fields[it.Tag]; !ok {
				return fmt.Errorf("dict %s: %s references undefined tag %d", d.version, where, it.Tag)
			}
		case it.Component != "":
			if _, ok := d.components[it.Component]; !ok {
				return fmt.Errorf("dict %s: %s references undefined component %q", d.version, where, it.Component)
			}
		case it.Group != nil:
			cf, ok := d.fields[it.Group.CountTag]
			if !ok {
				return fmt.Errorf("dict %s: %s group count tag %d undefined", d.version, where, it.Group.CountTag)
			}
			if cf.Kind != field.KindInt {
				return fmt.Errorf("dict %s: %s group count tag %d is %s, want int", d.version, where, it.Group.CountTag, cf.Kind)
			}
			if len(it.Group.Items) == 0 {
				return fmt.Errorf("dict %s: %s group %d has empty body", d.version, where, it.Group.CountTag)
			}
			if it.Group.Items[0].Tag == 0 {
				return fmt.Errorf("dict %s: %s group %d must start with a field delimiter", d.version, where, it.Group.CountTag)
			}
			if err := d.checkItems(it.Group.Items, fmt.Sprintf("%s group %d", where, it.Group.CountTag)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("dict %s: %s has an empty layout item", d.version, where)
		}
	}
	return nil
}

// Version returns the protocol revision token, e.g. "FIX.4.4".
func (d *Dictionary) Version() string { return d.version }

// FieldByTag looks up a field definition.
func (d *Dictionary) FieldByTag(tag int) (*FieldDef, bool) {
	f, ok := d.fields[tag]
	return f, ok
}

// MessageByType looks up a message definition by its type token.
func (d *Dictionary) MessageByType(msgType string) (*MessageDef, bool) {
	m, ok := d.messages[msgType]
	return m, ok
}

// Component looks up a component definition by name.
func (d *Dictionary) Component(name string) (*ComponentDef, bool) {
	c, ok := d.components[name]
	return c, ok
}

// ValidEnum reports whether raw is a legal wire token for the field. Fields
// without an enum table accept anything.
func (f *FieldDef) ValidEnum(raw string) bool {
	if f.Enum == nil {
		return true
	}
	_, ok := f.Enum[raw]
	return ok
}
