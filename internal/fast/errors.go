package fast

import (
	"errors"
	"fmt"
)

// ErrUnknownTemplate is returned when a message references a template id the
// registry does not hold.
var ErrUnknownTemplate = errors.New("fast: unknown template id")

// ErrNoTemplateID is returned when the first message of a stream omits its
// template id.
var ErrNoTemplateID = errors.New("fast: no template id and no prior template")

// DynamicError is a protocol-fatal operator violation: the stream referenced
// state that does not exist, such as a copy field absent on the first message
// of a session with no declared default. Sessions terminate on it.
type DynamicError struct {
	Template string
	Field    string
	Detail   string
}

func (e *DynamicError) Error() string {
	return fmt.Sprintf("fast: dynamic error in %s.%s: %s", e.Template, e.Field, e.Detail)
}

func dynamicErr(template, fieldName, format string, args ...any) error {
	return &DynamicError{Template: template, Field: fieldName, Detail: fmt.Sprintf(format, args...)}
}

// EncodeError reports a value that cannot be represented under the field's
// declared type or operator.
type EncodeError struct {
	Template string
	Field    string
	Detail   string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("fast: cannot encode %s.%s: %s", e.Template, e.Field, e.Detail)
}

func encodeErr(template, fieldName, format string, args ...any) error {
	return &EncodeError{Template: template, Field: fieldName, Detail: fmt.Sprintf(format, args...)}
}
