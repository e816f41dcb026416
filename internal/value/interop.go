package value

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"time"
)

// Regex, UUID, Date, and Handle back spec §3.1's "interop-specific tags".
// None of these have a purpose-built library anywhere in the example
// pack (x/text covers Unicode normalization/collation, not pattern
// matching or identifiers), so each is built directly on the matching
// standard-library package — justified per-type in DESIGN.md.

type Regex struct {
	Source string
	*regexp.Regexp
}

func NewRegex(source string) (*Regex, error) {
	re, err := regexp.Compile(source)
	if err != nil {
		return nil, err
	}
	return &Regex{Source: source, Regexp: re}, nil
}

func RegexValue(r *Regex) Value { return Value{Kind: KindRegex, Data: r} }
func (v Value) AsRegex() *Regex { return v.Data.(*Regex) }

// UUID is a 128-bit RFC 4122 value; NewUUID generates a version-4
// (random) UUID since no identifier-generation library appears anywhere
// in the retrieved pack.
type UUID [16]byte

func NewUUID() (UUID, error) {
	var u UUID
	if _, err := rand.Read(u[:]); err != nil {
		return UUID{}, err
	}
	u[6] = (u[6] & 0x0f) | 0x40
	u[8] = (u[8] & 0x3f) | 0x80
	return u, nil
}

func ParseUUID(s string) (UUID, error) {
	var u UUID
	_, err := fmt.Sscanf(s,
		"%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		&u[0], &u[1], &u[2], &u[3], &u[4], &u[5], &u[6], &u[7],
		&u[8], &u[9], &u[10], &u[11], &u[12], &u[13], &u[14], &u[15])
	return u, err
}

func (u UUID) String() string {
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		u[0], u[1], u[2], u[3], u[4], u[5], u[6], u[7],
		u[8], u[9], u[10], u[11], u[12], u[13], u[14], u[15])
}

func UUIDValue(u UUID) Value { return Value{Kind: KindUUID, Data: u} }
func (v Value) AsUUID() UUID { return v.Data.(UUID) }

// Date wraps time.Time for #inst literals.
type Date struct{ T time.Time }

func DateValue(d Date) Value  { return Value{Kind: KindDate, Data: d} }
func (v Value) AsDate() Date  { return v.Data.(Date) }

// ClassInstance is a small map tagged with a reify/deftype class, per
// spec §3.1 ("class_instance: a small map carrying a __reify_type class
// tag"). ReifyTypeKey is the well-known field every class_instance's
// field map carries its type symbol under.
var ReifyTypeKey = KeywordValue("", "__reify_type")

type ClassInstance struct {
	Fields *Map
}

func NewClassInstance(classTag Value, fields *Map) *ClassInstance {
	return &ClassInstance{Fields: fields.Assoc(ReifyTypeKey, classTag)}
}

func (c *ClassInstance) ClassTag() Value {
	tag, _ := c.Fields.Get(ReifyTypeKey)
	return tag
}

func ClassInstanceValue(c *ClassInstance) Value { return Value{Kind: KindClassInstance, Data: c} }
func (v Value) AsClassInstance() *ClassInstance  { return v.Data.(*ClassInstance) }

// Handle is an opaque interop resource reference (e.g. an open file or
// wasm-module instance) that the GC traces but never copies or compares
// structurally.
type Handle struct {
	Tag string
	Ref any
}

func HandleValue(h *Handle) Value { return Value{Kind: KindHandle, Data: h} }
func (v Value) AsHandle() *Handle { return v.Data.(*Handle) }
