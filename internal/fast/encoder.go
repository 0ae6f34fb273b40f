package fast

import (
	"fmt"

	"github.com/finexio/fixwire/internal/field"
	"github.com/finexio/fixwire/internal/message"
)

// Encoder serializes messages under a template, picking the smallest legal
// representation each operator allows: a copy field equal to its previous
// value costs one cleared presence bit and no body bytes.
//
// Like the Decoder, the Encoder is stateless; the per-session Context tracks
// what the peer's decoder will have remembered.
type Encoder struct {
	registry *Registry
}

// NewEncoder returns an encoder over the given template registry.
func NewEncoder(r *Registry) *Encoder {
	return &Encoder{registry: r}
}

// Encode serializes msg under the identified template, updating ctx exactly
// as the receiving decoder will.
func (e *Encoder) Encode(tmplID uint32, msg *message.Message, ctx *Context) ([]byte, error) {
	tmpl, ok := e.registry.ByID(tmplID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTemplate, tmplID)
	}

	var pmap PMapWriter
	var body []byte

	// Presence bit 0: template id, omitted when unchanged from the previous
	// message on this stream.
	writeID := ctx.lastTemplateID != tmplID
	pmap.Append(writeID)
	if writeID {
		body = AppendUint(body, uint64(tmplID))
		ctx.lastTemplateID = tmplID
	}

	body, err := e.encodeFields(tmpl, tmpl.Fields, msg.Body, &pmap, body, ctx)
	if err != nil {
		return nil, err
	}

	out := pmap.Bytes()
	return append(out, body...), nil
}

func (e *Encoder) encodeFields(tmpl *Template, fields []TemplateField, fl *message.FieldList, pmap *PMapWriter, body []byte, ctx *Context) ([]byte, error) {
	var err error
	for i := range fields {
		f := &fields[i]

		if f.Sequence != nil {
			n := fl.GroupCount(f.Tag)
			body = AppendUint(body, uint64(n))
			segPMap := anyPMapBits(f.Sequence)
			for j := 0; j < n; j++ {
				inst := fl.Group(f.Tag, j)
				if segPMap {
					var inner PMapWriter
					var segBody []byte
					segBody, err = e.encodeFields(tmpl, f.Sequence, inst, &inner, nil, ctx)
					if err != nil {
						return nil, err
					}
					body = append(body, inner.Bytes()...)
					body = append(body, segBody...)
				} else {
					body, err = e.encodeFields(tmpl, f.Sequence, inst, pmap, body, ctx)
					if err != nil {
						return nil, err
					}
				}
			}
			continue
		}

		body, err = e.encodeScalar(tmpl, f, fl, pmap, body, ctx)
		if err != nil {
			return nil, err
		}
	}
	return body, nil
}

func (e *Encoder) encodeScalar(tmpl *Template, f *TemplateField, fl *message.FieldList, pmap *PMapWriter, body []byte, ctx *Context) ([]byte, error) {
	v, present := fl.Get(f.Tag)

	switch f.Op {
	case OpNone:
		if !present {
			return nil, encodeErr(tmpl.Name, f.Name, "required field missing")
		}
		return appendValue(body, f.Kind, v)

	case OpConstant:
		if present && !v.Equal(f.Initial) {
			return nil, encodeErr(tmpl.Name, f.Name, "value %s differs from declared constant %s", v, f.Initial)
		}
		return body, nil

	case OpDefault:
		if !present || v.Equal(f.Initial) {
			pmap.Append(false)
			return body, nil
		}
		pmap.Append(true)
		return appendValue(body, f.Kind, v)

	case OpCopy:
		if !present {
			return nil, encodeErr(tmpl.Name, f.Name, "copy field missing from message")
		}
		if prev, ok := ctx.previous(tmpl.ID, f.Name); ok && prev.Equal(v) {
			pmap.Append(false)
			return body, nil
		}
		pmap.Append(true)
		ctx.assign(tmpl.ID, f.Name, v)
		return appendValue(body, f.Kind, v)

	case OpIncrement:
		if !present {
			return nil, encodeErr(tmpl.Name, f.Name, "increment field missing from message")
		}
		n, _ := v.Int()
		if prev, ok := ctx.previous(tmpl.ID, f.Name); ok {
			if p, _ := prev.Int(); n == p+1 {
				pmap.Append(false)
				ctx.assign(tmpl.ID, f.Name, v)
				return body, nil
			}
		}
		pmap.Append(true)
		ctx.assign(tmpl.ID, f.Name, v)
		return appendValue(body, f.Kind, v)

	case OpDelta:
		if !present {
			return nil, encodeErr(tmpl.Name, f.Name, "delta field missing from message")
		}
		base, ok := ctx.previous(tmpl.ID, f.Name)
		if !ok {
			if f.Initial.IsZero() {
				return nil, encodeErr(tmpl.Name, f.Name, "delta with no previous value and no default")
			}
			base = f.Initial
		}
		ctx.assign(tmpl.ID, f.Name, v)
		return appendDelta(body, f.Kind, base, v, tmpl.Name, f.Name)
	}
	return nil, fmt.Errorf("fast: unhandled operator %s", f.Op)
}

func appendValue(dst []byte, kind field.Kind, v field.Value) ([]byte, error) {
	switch kind {
	case field.KindInt:
		n, ok := v.Int()
		if !ok {
			return nil, fmt.Errorf("fast: value %s is not an int", v)
		}
		return AppendInt(dst, n), nil
	case field.KindString:
		s, ok := v.Str()
		if !ok {
			return nil, fmt.Errorf("fast: value %s is not a string", v)
		}
		return AppendASCII(dst, s), nil
	case field.KindDecimal:
		d, ok := v.Decimal()
		if !ok {
			return nil, fmt.Errorf("fast: value %s is not a decimal", v)
		}
		dst = AppendInt(dst, int64(d.Exponent()))
		return AppendInt(dst, d.CoefficientInt64()), nil
	case field.KindData:
		b, ok := v.Bytes()
		if !ok {
			return nil, fmt.Errorf("fast: value %s is not a byte vector", v)
		}
		return AppendBytes(dst, b), nil
	}
	return nil, fmt.Errorf("fast: unsupported wire kind %s", kind)
}

func appendDelta(dst []byte, kind field.Kind, base, v field.Value, tmplName, fieldName string) ([]byte, error) {
	switch kind {
	case field.KindInt:
		b, _ := base.Int()
		n, ok := v.Int()
		if !ok {
			return nil, encodeErr(tmplName, fieldName, "value %s is not an int", v)
		}
		return AppendInt(dst, n-b), nil
	case field.KindDecimal:
		bd, _ := base.Decimal()
		d, ok := v.Decimal()
		if !ok {
			return nil, encodeErr(tmplName, fieldName, "value %s is not a decimal", v)
		}
		dst = AppendInt(dst, int64(d.Exponent())-int64(bd.Exponent()))
		return AppendInt(dst, d.CoefficientInt64()-bd.CoefficientInt64()), nil
	}
	return nil, encodeErr(tmplName, fieldName, "delta unsupported for kind %s", kind)
}
