package fast

import "github.com/finexio/fixwire/internal/field"

// stateKey scopes a dictionary entry to its template, so the same field name
// in two templates keeps independent state.
type stateKey struct {
	tmpl uint32
	name string
}

// Context holds the operator state ("previous value" memory for copy, delta,
// and increment fields) accumulated over one session's message stream.
//
// The state is deliberately owned by the Session, never shared: two sessions
// decoding the same template set must not see each other's previous values.
// A Context is not safe for concurrent use, matching the
// one-goroutine-per-session execution model.
type Context struct {
	prev           map[stateKey]field.Value
	lastTemplateID uint32
}

// NewContext returns fresh operator state for a new session.
func NewContext() *Context {
	return &Context{prev: make(map[stateKey]field.Value)}
}

// Reset clears all previous values, as after a sequence reset or a reconnect
// without recovery.
func (c *Context) Reset() {
	c.prev = make(map[stateKey]field.Value)
	c.lastTemplateID = 0
}

func (c *Context) previous(tmplID uint32, name string) (field.Value, bool) {
	v, ok := c.prev[stateKey{tmpl: tmplID, name: name}]
	return v, ok
}

func (c *Context) assign(tmplID uint32, name string, v field.Value) {
	c.prev[stateKey{tmpl: tmplID, name: name}] = v
}
