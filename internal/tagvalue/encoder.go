package tagvalue

import (
	"fmt"
	"strconv"

	"github.com/finexio/fixwire/internal/dict"
	"github.com/finexio/fixwire/internal/message"
)

// Encoder serializes messages in dictionary order with synthetic framing:
// BeginString and BodyLength are prepended, CheckSum is appended. Stateless
// and safe for concurrent use.
type Encoder struct {
	dict *dict.Dictionary
	sep  byte
}

// NewEncoder returns an encoder using the standard SOH separator.
func NewEncoder(d *dict.Dictionary) *Encoder {
	return &Encoder{dict: d, sep: SOH}
}

// SetSeparator overrides the field separator. Tests use '|' for legibility.
func (ec *Encoder) SetSeparator(sep byte) { ec.sep = sep }

// Encode serializes msg. Fields are emitted in the order the message
// definition specifies, components and groups expanded in place. A missing
// required field is a SchemaError; encoding never emits a frame the decoder
// would reject.
func (ec *Encoder) Encode(msg *message.Message) ([]byte, error) {
	def, ok := ec.dict.MessageByType(msg.MsgType)
	if !ok {
		return nil, schemaErr(ReasonInvalidMsgType, dict.TagMsgType, msg.MsgType, "unknown message type")
	}

	body := make([]byte, 0, 256)
	body = ec.appendField(body, dict.TagMsgType, msg.MsgType)

	var headerLayout []dict.Item
	if header, ok := ec.dict.Component(dict.HeaderComponent); ok {
		headerLayout = header.Items
	}
	body, err := ec.appendLayout(body, headerLayout, msg.Header, msg.MsgType)
	if err != nil {
		return nil, err
	}
	body, err = ec.appendLayout(body, def.Items, msg.Body, msg.MsgType)
	if err != nil {
		return nil, err
	}

	// User-defined tags ride after the dictionary layout, in insertion order.
	scalars, groups := ec.splitLayout(def.Items)
	for i := 0; i < msg.Body.Len(); i++ {
		e := msg.Body.EntryAt(i)
		if e.Tag >= userTagMin && scalars[e.Tag] == nil && groups[e.Tag] == nil {
			body = ec.appendValue(body, e.Tag, e)
		}
	}

	frame := make([]byte, 0, len(body)+32)
	frame = append(frame, '8', '=')
	frame = append(frame, msg.BeginString...)
	frame = append(frame, ec.sep)
	frame = append(frame, '9', '=')
	frame = strconv.AppendInt(frame, int64(len(body)), 10)
	frame = append(frame, ec.sep)
	frame = append(frame, body...)
	// CheckSum covers everything before its own tag.
	sum := Checksum(frame)
	frame = append(frame, '1', '0', '=')
	frame = append(frame, fmt.Sprintf("%03d", sum)...)
	frame = append(frame, ec.sep)
	return frame, nil
}

func (ec *Encoder) appendLayout(dst []byte, items []dict.Item, fl *message.FieldList, msgType string) ([]byte, error) {
	var err error
	for _, it := range items {
		switch {
		case it.Tag != 0:
			i, ok := findEntry(fl, it.Tag)
			if !ok {
				if it.Required {
					return nil, schemaErr(ReasonRequiredTagMissing, it.Tag, msgType, "required field missing")
				}
				continue
			}
			dst = ec.appendValue(dst, it.Tag, fl.EntryAt(i))

		case it.Group != nil:
			n := fl.GroupCount(it.Group.CountTag)
			if n == 0 && !fl.Has(it.Group.CountTag) {
				if it.Required {
					return nil, schemaErr(ReasonRequiredTagMissing, it.Group.CountTag, msgType, "required group missing")
				}
				continue
			}
			dst = ec.appendField(dst, it.Group.CountTag, strconv.Itoa(n))
			for i := 0; i < n; i++ {
				dst, err = ec.appendLayout(dst, it.Group.Items, fl.Group(it.Group.CountTag, i), msgType)
				if err != nil {
					return nil, err
				}
			}

		case it.Component != "":
			c, ok := ec.dict.Component(it.Component)
			if !ok {
				return nil, schemaErr(ReasonUndefinedTag, 0, msgType, "undefined component %q", it.Component)
			}
			dst, err = ec.appendLayout(dst, c.Items, fl, msgType)
			if err != nil {
				return nil, err
			}
		}
	}
	return dst, nil
}

func (ec *Encoder) appendValue(dst []byte, tag int, e message.Entry) []byte {
	dst = strconv.AppendInt(dst, int64(tag), 10)
	dst = append(dst, '=')
	dst = e.Value.AppendWire(dst)
	return append(dst, ec.sep)
}

func (ec *Encoder) appendField(dst []byte, tag int, value string) []byte {
	dst = strconv.AppendInt(dst, int64(tag), 10)
	dst = append(dst, '=')
	dst = append(dst, value...)
	return append(dst, ec.sep)
}

func (ec *Encoder) splitLayout(items []dict.Item) (map[int]*dict.Item, map[int]*dict.GroupDef) {
	d := Decoder{dict: ec.dict, sep: ec.sep}
	return d.splitLayout(items)
}

func findEntry(fl *message.FieldList, tag int) (int, bool) {
	for i := 0; i < fl.Len(); i++ {
		if fl.EntryAt(i).Tag == tag {
			return i, true
		}
	}
	return 0, false
}
