// Package message holds the codec-agnostic in-memory form of a decoded
// message: an ordered field list with constant-time tag lookup and indexed
// access into nested repeating-group instances.
//
// A Message is built by whichever codec decoded it and is treated as
// immutable once handed to the session layer or the application; mutation
// means building a new Message.
package message

import (
	"github.com/finexio/fixwire/internal/field"
)

// Entry is one slot in a field list: a scalar field, or a repeating-group
// count field together with its instances.
type Entry struct {
	Tag       int
	Value     field.Value
	Instances []*FieldList // non-nil only for group count entries
}

// FieldList is an ordered sequence of entries with O(1) lookup by tag. It
// backs both the message body and each group instance.
type FieldList struct {
	entries []Entry
	byTag   map[int]int
}

// NewFieldList returns an empty field list.
func NewFieldList() *FieldList {
	return &FieldList{byTag: make(map[int]int)}
}

// Append adds a scalar field. The first occurrence of a tag wins lookup.
func (fl *FieldList) Append(tag int, v field.Value) *FieldList {
	if _, seen := fl.byTag[tag]; !seen {
		fl.byTag[tag] = len(fl.entries)
	}
	fl.entries = append(fl.entries, Entry{Tag: tag, Value: v})
	return fl
}

// AppendGroup adds a group count field with its instances. The count value is
// always the number of instances.
func (fl *FieldList) AppendGroup(countTag int, instances []*FieldList) *FieldList {
	if _, seen := fl.byTag[countTag]; !seen {
		fl.byTag[countTag] = len(fl.entries)
	}
	fl.entries = append(fl.entries, Entry{
		Tag:       countTag,
		Value:     field.Int(int64(len(instances))),
		Instances: instances,
	})
	return fl
}

// Get returns the value of the first occurrence of tag.
func (fl *FieldList) Get(tag int) (field.Value, bool) {
	i, ok := fl.byTag[tag]
	if !ok {
		return field.Value{}, false
	}
	return fl.entries[i].Value, true
}

// Has reports whether tag occurs in the list.
func (fl *FieldList) Has(tag int) bool {
	_, ok := fl.byTag[tag]
	return ok
}

// GroupCount returns the number of instances of the group keyed by countTag.
func (fl *FieldList) GroupCount(countTag int) int {
	i, ok := fl.byTag[countTag]
	if !ok {
		return 0
	}
	return len(fl.entries[i].Instances)
}

// Group returns instance i of the group keyed by countTag, or nil when out of
// range.
func (fl *FieldList) Group(countTag, i int) *FieldList {
	idx, ok := fl.byTag[countTag]
	if !ok {
		return nil
	}
	inst := fl.entries[idx].Instances
	if i < 0 || i >= len(inst) {
		return nil
	}
	return inst[i]
}

// Len returns the number of entries (groups count as one entry).
func (fl *FieldList) Len() int { return len(fl.entries) }

// EntryAt returns the entry at position i in wire order.
func (fl *FieldList) EntryAt(i int) Entry { return fl.entries[i] }

// Equal compares two field lists entry by entry: same order, same tags, equal
// typed values, recursively equal group instances.
func (fl *FieldList) Equal(o *FieldList) bool {
	if fl.Len() != o.Len() {
		return false
	}
	for i := range fl.entries {
		a, b := fl.entries[i], o.entries[i]
		if a.Tag != b.Tag || !a.Value.Equal(b.Value) {
			return false
		}
		if len(a.Instances) != len(b.Instances) {
			return false
		}
		for j := range a.Instances {
			if !a.Instances[j].Equal(b.Instances[j]) {
				return false
			}
		}
	}
	return true
}

// Message is a decoded message: its type token, the negotiated protocol
// revision it was validated against, and the ordered header and body fields.
// Framing fields (BeginString, BodyLength, MsgType, CheckSum) live outside
// the field lists.
type Message struct {
	BeginString string
	MsgType     string
	Header      *FieldList
	Body        *FieldList
}

// New returns an empty message of the given type.
func New(beginString, msgType string) *Message {
	return &Message{
		BeginString: beginString,
		MsgType:     msgType,
		Header:      NewFieldList(),
		Body:        NewFieldList(),
	}
}

// Get looks up a tag in the header first, then the body.
func (m *Message) Get(tag int) (field.Value, bool) {
	if v, ok := m.Header.Get(tag); ok {
		return v, true
	}
	return m.Body.Get(tag)
}

// Equal reports whether two messages carry the same typed content.
func (m *Message) Equal(o *Message) bool {
	return m.BeginString == o.BeginString &&
		m.MsgType == o.MsgType &&
		m.Header.Equal(o.Header) &&
		m.Body.Equal(o.Body)
}
