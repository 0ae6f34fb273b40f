package fast

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finexio/fixwire/internal/field"
	"github.com/finexio/fixwire/internal/message"
)

// Decoder turns compact binary message instances into the shared message
// model. The Decoder itself is stateless; all operator memory lives in the
// per-session Context passed to Decode.
type Decoder struct {
	registry *Registry
}

// NewDecoder returns a decoder over the given template registry.
func NewDecoder(r *Registry) *Decoder {
	return &Decoder{registry: r}
}

// Decode reads one message instance from the head of src and returns it with
// the number of bytes consumed, so callers can walk a packed buffer.
func (d *Decoder) Decode(src []byte, ctx *Context) (*message.Message, int, error) {
	pmap, pos, err := ReadPMap(src)
	if err != nil {
		return nil, 0, err
	}

	tmplID := ctx.lastTemplateID
	if pmap.Next() {
		id, n, err := ReadUint(src[pos:])
		if err != nil {
			return nil, 0, err
		}
		pos += n
		tmplID = uint32(id)
		ctx.lastTemplateID = tmplID
	} else if tmplID == 0 {
		return nil, 0, ErrNoTemplateID
	}

	tmpl, ok := d.registry.ByID(tmplID)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownTemplate, tmplID)
	}

	msg := message.New("", tmpl.MsgType)
	n, err := d.decodeFields(tmpl, tmpl.Fields, src[pos:], pmap, ctx, msg.Body)
	if err != nil {
		return nil, 0, err
	}
	return msg, pos + n, nil
}

func (d *Decoder) decodeFields(tmpl *Template, fields []TemplateField, src []byte, pmap *PMapReader, ctx *Context, out *message.FieldList) (int, error) {
	pos := 0
	for i := range fields {
		f := &fields[i]

		if f.Sequence != nil {
			length, n, err := ReadUint(src[pos:])
			if err != nil {
				return 0, err
			}
			pos += n
			segPMap := anyPMapBits(f.Sequence)
			instances := make([]*message.FieldList, 0, length)
			for j := uint64(0); j < length; j++ {
				inner := pmap
				if segPMap {
					inner, n, err = ReadPMap(src[pos:])
					if err != nil {
						return 0, err
					}
					pos += n
				}
				inst := message.NewFieldList()
				used, err := d.decodeFields(tmpl, f.Sequence, src[pos:], inner, ctx, inst)
				if err != nil {
					return 0, err
				}
				pos += used
				instances = append(instances, inst)
			}
			out.AppendGroup(f.Tag, instances)
			continue
		}

		v, present, n, err := d.decodeScalar(tmpl, f, src[pos:], pmap, ctx)
		if err != nil {
			return 0, err
		}
		pos += n
		if present {
			out.Append(f.Tag, v)
		}
	}
	return pos, nil
}

func (d *Decoder) decodeScalar(tmpl *Template, f *TemplateField, src []byte, pmap *PMapReader, ctx *Context) (field.Value, bool, int, error) {
	switch f.Op {
	case OpNone:
		v, n, err := readValue(f.Kind, src)
		return v, err == nil, n, err

	case OpConstant:
		// Required constants never touch the wire.
		return f.Initial, true, 0, nil

	case OpDefault:
		if pmap.Next() {
			v, n, err := readValue(f.Kind, src)
			return v, err == nil, n, err
		}
		return f.Initial, true, 0, nil

	case OpCopy:
		if pmap.Next() {
			v, n, err := readValue(f.Kind, src)
			if err != nil {
				return field.Value{}, false, 0, err
			}
			ctx.assign(tmpl.ID, f.Name, v)
			return v, true, n, nil
		}
		if prev, ok := ctx.previous(tmpl.ID, f.Name); ok {
			return prev, true, 0, nil
		}
		if !f.Initial.IsZero() {
			ctx.assign(tmpl.ID, f.Name, f.Initial)
			return f.Initial, true, 0, nil
		}
		return field.Value{}, false, 0, dynamicErr(tmpl.Name, f.Name,
			"copy field absent with no previous value and no default")

	case OpIncrement:
		if pmap.Next() {
			v, n, err := readValue(f.Kind, src)
			if err != nil {
				return field.Value{}, false, 0, err
			}
			ctx.assign(tmpl.ID, f.Name, v)
			return v, true, n, nil
		}
		if prev, ok := ctx.previous(tmpl.ID, f.Name); ok {
			p, _ := prev.Int()
			v := field.Int(p + 1)
			ctx.assign(tmpl.ID, f.Name, v)
			return v, true, 0, nil
		}
		if !f.Initial.IsZero() {
			ctx.assign(tmpl.ID, f.Name, f.Initial)
			return f.Initial, true, 0, nil
		}
		return field.Value{}, false, 0, dynamicErr(tmpl.Name, f.Name,
			"increment field absent with no previous value and no default")

	case OpDelta:
		base, ok := ctx.previous(tmpl.ID, f.Name)
		if !ok {
			if f.Initial.IsZero() {
				return field.Value{}, false, 0, dynamicErr(tmpl.Name, f.Name,
					"delta with no previous value and no default")
			}
			base = f.Initial
		}
		v, n, err := readDelta(f.Kind, src, base)
		if err != nil {
			return field.Value{}, false, 0, err
		}
		ctx.assign(tmpl.ID, f.Name, v)
		return v, true, n, nil
	}
	return field.Value{}, false, 0, fmt.Errorf("fast: unhandled operator %s", f.Op)
}

func readValue(kind field.Kind, src []byte) (field.Value, int, error) {
	switch kind {
	case field.KindInt:
		v, n, err := ReadInt(src)
		if err != nil {
			return field.Value{}, 0, err
		}
		return field.Int(v), n, nil
	case field.KindString:
		s, n, err := ReadASCII(src)
		if err != nil {
			return field.Value{}, 0, err
		}
		return field.String(s), n, nil
	case field.KindDecimal:
		exp, n1, err := ReadInt(src)
		if err != nil {
			return field.Value{}, 0, err
		}
		mant, n2, err := ReadInt(src[n1:])
		if err != nil {
			return field.Value{}, 0, err
		}
		return field.Decimal(decimal.New(mant, int32(exp))), n1 + n2, nil
	case field.KindData:
		b, n, err := ReadBytes(src)
		if err != nil {
			return field.Value{}, 0, err
		}
		return field.Data(b), n, nil
	}
	return field.Value{}, 0, fmt.Errorf("fast: unsupported wire kind %s", kind)
}

func readDelta(kind field.Kind, src []byte, base field.Value) (field.Value, int, error) {
	switch kind {
	case field.KindInt:
		d, n, err := ReadInt(src)
		if err != nil {
			return field.Value{}, 0, err
		}
		b, _ := base.Int()
		return field.Int(b + d), n, nil
	case field.KindDecimal:
		dExp, n1, err := ReadInt(src)
		if err != nil {
			return field.Value{}, 0, err
		}
		dMant, n2, err := ReadInt(src[n1:])
		if err != nil {
			return field.Value{}, 0, err
		}
		b, _ := base.Decimal()
		exp := int64(b.Exponent()) + dExp
		mant := b.CoefficientInt64() + dMant
		return field.Decimal(decimal.New(mant, int32(exp))), n1 + n2, nil
	}
	return field.Value{}, 0, fmt.Errorf("fast: delta unsupported for kind %s", kind)
}

// anyPMapBits reports whether a segment layout needs its own presence map.
func anyPMapBits(fields []TemplateField) bool {
	for i := range fields {
		if fields[i].Sequence != nil {
			continue
		}
		if fields[i].Op.usesPMapBit() {
			return true
		}
	}
	return false
}
