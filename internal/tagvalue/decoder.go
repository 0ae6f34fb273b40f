package tagvalue

import (
	"strconv"

	"github.com/finexio/fixwire/internal/dict"
	"github.com/finexio/fixwire/internal/field"
	"github.com/finexio/fixwire/internal/message"
)

// Tags at and above this value are user-defined. Unknown tags in this range
// pass through as opaque strings instead of rejecting the message.
const userTagMin = 5000

// Decoder turns validated frames into dictionary-checked messages.
// A Decoder is stateless apart from its configuration and is safe to share
// across goroutines.
type Decoder struct {
	dict *dict.Dictionary
	sep  byte
}

// NewDecoder returns a decoder for the given dictionary using the standard
// SOH separator.
func NewDecoder(d *dict.Dictionary) *Decoder {
	return &Decoder{dict: d, sep: SOH}
}

// SetSeparator overrides the field separator. Tests use '|' for legibility.
func (dc *Decoder) SetSeparator(sep byte) { dc.sep = sep }

// Separator returns the configured field separator.
func (dc *Decoder) Separator() byte { return dc.sep }

type rawField struct {
	tag   int
	value []byte
}

// Decode validates framing, tokenizes the body, and assembles a typed
// message. Errors are either *MalformedError (frame or value cannot be
// parsed) or *SchemaError (parsed fine, violates the dictionary).
func (dc *Decoder) Decode(data []byte) (*message.Message, error) {
	frame, err := ScanFrame(data, dc.sep)
	if err != nil {
		return nil, err
	}
	return dc.DecodeFrame(frame)
}

// DecodeFrame decodes a frame that already passed ScanFrame.
func (dc *Decoder) DecodeFrame(frame RawFrame) (*message.Message, error) {
	fields, err := dc.tokenize(frame.Body())
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 || fields[0].tag != dict.TagMsgType {
		return nil, malformed("first body field is not MsgType(35)")
	}
	msgType := string(fields[0].value)
	def, ok := dc.dict.MessageByType(msgType)
	if !ok {
		return nil, schemaErr(ReasonInvalidMsgType, dict.TagMsgType, msgType, "unknown message type")
	}

	var headerLayout []dict.Item
	if header, ok := dc.dict.Component(dict.HeaderComponent); ok {
		headerLayout = header.Items
	}
	headerItems := indexItems(headerLayout)
	scalars, groups := dc.splitLayout(def.Items)

	msg := message.New(string(frame.BeginString()), msgType)
	toks := fields[1:]
	i := 0
	for i < len(toks) {
		f := toks[i]
		switch {
		case headerItems[f.tag] != nil:
			v, err := dc.parseValue(f)
			if err != nil {
				return nil, err
			}
			msg.Header.Append(f.tag, v)
			i++

		case groups[f.tag] != nil:
			gd := groups[f.tag]
			declared, err := strconv.Atoi(string(f.value))
			if err != nil || declared < 0 {
				return nil, malformed("bad group count %q for tag %d", f.value, f.tag)
			}
			i++
			instances, err := dc.parseGroup(toks, &i, gd, msgType)
			if err != nil {
				return nil, err
			}
			if len(instances) != declared {
				return nil, schemaErr(ReasonIncorrectGroupCount, gd.CountTag, msgType,
					"declared %d instances, found %d", declared, len(instances))
			}
			msg.Body.AppendGroup(gd.CountTag, instances)

		case scalars[f.tag] != nil:
			v, err := dc.parseValue(f)
			if err != nil {
				return nil, err
			}
			fd, _ := dc.dict.FieldByTag(f.tag)
			if !fd.ValidEnum(string(f.value)) {
				return nil, schemaErr(ReasonValueIncorrect, f.tag, msgType, "value %q not in enum", f.value)
			}
			msg.Body.Append(f.tag, v)
			i++

		default:
			if _, known := dc.dict.FieldByTag(f.tag); !known {
				if f.tag >= userTagMin {
					// User-data escape: carried verbatim, never validated.
					v, err := field.Parse(field.KindString, f.value)
					if err != nil {
						return nil, err
					}
					msg.Body.Append(f.tag, v)
					i++
					continue
				}
				return nil, schemaErr(ReasonUndefinedTag, f.tag, msgType, "tag not in dictionary")
			}
			return nil, schemaErr(ReasonTagNotDefinedForType, f.tag, msgType, "tag not in message layout")
		}
	}

	if err := dc.checkRequired(headerLayout, msg.Header, msgType); err != nil {
		return nil, err
	}
	if err := dc.checkRequired(def.Items, msg.Body, msgType); err != nil {
		return nil, err
	}
	return msg, nil
}

// parseGroup consumes contiguous group instances starting at toks[*i]. Each
// instance begins with the delimiter field; an instance ends when the
// delimiter repeats or a tag outside the group layout appears.
func (dc *Decoder) parseGroup(toks []rawField, i *int, gd *dict.GroupDef, msgType string) ([]*message.FieldList, error) {
	delim := gd.Items[0].Tag
	scalars, nested := dc.splitLayout(gd.Items)

	var instances []*message.FieldList
	for *i < len(toks) && toks[*i].tag == delim {
		inst := message.NewFieldList()
		v, err := dc.parseValue(toks[*i])
		if err != nil {
			return nil, err
		}
		inst.Append(delim, v)
		*i++

		for *i < len(toks) {
			f := toks[*i]
			if f.tag == delim {
				break // next instance
			}
			if ng := nested[f.tag]; ng != nil {
				declared, err := strconv.Atoi(string(f.value))
				if err != nil || declared < 0 {
					return nil, malformed("bad group count %q for tag %d", f.value, f.tag)
				}
				*i++
				sub, err := dc.parseGroup(toks, i, ng, msgType)
				if err != nil {
					return nil, err
				}
				if len(sub) != declared {
					return nil, schemaErr(ReasonIncorrectGroupCount, ng.CountTag, msgType,
						"declared %d instances, found %d", declared, len(sub))
				}
				inst.AppendGroup(ng.CountTag, sub)
				continue
			}
			if scalars[f.tag] == nil {
				break // not part of this group
			}
			v, err := dc.parseValue(f)
			if err != nil {
				return nil, err
			}
			inst.Append(f.tag, v)
			*i++
		}

		for _, it := range gd.Items {
			if it.Required && it.Tag != 0 && !inst.Has(it.Tag) {
				return nil, schemaErr(ReasonRequiredTagMissing, it.Tag, msgType, "required group field missing")
			}
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

func (dc *Decoder) parseValue(f rawField) (field.Value, error) {
	fd, ok := dc.dict.FieldByTag(f.tag)
	if !ok {
		return field.Value{}, schemaErr(ReasonUndefinedTag, f.tag, "", "tag not in dictionary")
	}
	v, err := field.Parse(fd.Kind, f.value)
	if err != nil {
		// A value that does not parse as its declared type makes the frame
		// untrustworthy, same class as a checksum failure.
		return field.Value{}, malformed("tag %d: %v", f.tag, err)
	}
	return v, nil
}

// tokenize splits the body into tag/value pairs. Data fields consume exactly
// the byte count declared by their paired length field, so embedded
// separators inside raw data do not break the scan.
func (dc *Decoder) tokenize(body []byte) ([]rawField, error) {
	var out []rawField
	lastInts := make(map[int]int)
	i := 0
	for i < len(body) {
		eq := indexByte(body, '=', i)
		if eq < 0 || eq == i {
			return nil, malformed("missing tag at offset %d", i)
		}
		tag, err := strconv.Atoi(string(body[i:eq]))
		if err != nil || tag <= 0 {
			return nil, malformed("bad tag %q", body[i:eq])
		}
		valStart := eq + 1

		var valEnd int
		if fd, ok := dc.dict.FieldByTag(tag); ok && fd.Kind == field.KindData && fd.LengthTag != 0 {
			n, ok := lastInts[fd.LengthTag]
			if !ok {
				return nil, malformed("data field %d without preceding length field %d", tag, fd.LengthTag)
			}
			valEnd = valStart + n
			if valEnd >= len(body) || body[valEnd] != dc.sep {
				return nil, malformed("data field %d overruns frame", tag)
			}
		} else {
			valEnd = indexByte(body, dc.sep, valStart)
			if valEnd < 0 {
				return nil, malformed("unterminated field %d", tag)
			}
		}
		value := body[valStart:valEnd]
		if len(value) == 0 {
			return nil, schemaErr(ReasonTagWithoutValue, tag, "", "empty value")
		}
		if n, err := strconv.Atoi(string(value)); err == nil {
			lastInts[tag] = n
		}
		out = append(out, rawField{tag: tag, value: value})
		i = valEnd + 1
	}
	return out, nil
}

// splitLayout expands components and indexes a layout into scalar items and
// group definitions by tag.
func (dc *Decoder) splitLayout(items []dict.Item) (map[int]*dict.Item, map[int]*dict.GroupDef) {
	scalars := make(map[int]*dict.Item)
	groups := make(map[int]*dict.GroupDef)
	var walk func(items []dict.Item)
	walk = func(items []dict.Item) {
		for i := range items {
			it := &items[i]
			switch {
			case it.Tag != 0:
				scalars[it.Tag] = it
			case it.Group != nil:
				groups[it.Group.CountTag] = it.Group
			case it.Component != "":
				if c, ok := dc.dict.Component(it.Component); ok {
					walk(c.Items)
				}
			}
		}
	}
	walk(items)
	return scalars, groups
}

func (dc *Decoder) checkRequired(items []dict.Item, fl *message.FieldList, msgType string) error {
	for _, it := range items {
		switch {
		case it.Tag != 0:
			if it.Required && !fl.Has(it.Tag) {
				return schemaErr(ReasonRequiredTagMissing, it.Tag, msgType, "required field missing")
			}
		case it.Group != nil:
			if it.Required && !fl.Has(it.Group.CountTag) {
				return schemaErr(ReasonRequiredTagMissing, it.Group.CountTag, msgType, "required group missing")
			}
		case it.Component != "":
			if c, ok := dc.dict.Component(it.Component); ok {
				if err := dc.checkRequired(c.Items, fl, msgType); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func indexItems(items []dict.Item) map[int]*dict.Item {
	m := make(map[int]*dict.Item, len(items))
	for i := range items {
		if items[i].Tag != 0 {
			m[items[i].Tag] = &items[i]
		}
	}
	return m
}
