package catalog

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the declared type of a field: a primitive passed through as-is,
// a named structure decoded field-wise, or a homogeneous array of a named
// structure.
type Kind int

const (
	KindPrimitive Kind = iota
	KindStruct
	KindArray
)

type TypeRef struct {
	Kind Kind
	Ref  string // struct name for KindStruct and KindArray
}

func Primitive() TypeRef { return TypeRef{Kind: KindPrimitive} }

func StructOf(name string) TypeRef { return TypeRef{Kind: KindStruct, Ref: name} }

func ArrayOf(name string) TypeRef { return TypeRef{Kind: KindArray, Ref: name} }

type Field struct {
	Name     string
	Type     TypeRef
	Optional bool
}

// Struct is a protocol-defined structure referenced by name from fields.
type Struct struct {
	Name   string
	Fields []Field
}

// Command describes one Domain.method pair: its parameter declarations and
// its declared result shape.
type Command struct {
	Domain  string
	Name    string
	Params  []Field
	Returns []Field
}

func (c *Command) Method() string {
	return c.Domain + "." + c.Name
}

// Identity is the dedup capability of a hashable event type: the ordered
// list of field names whose raw values identify "the same occurrence".
// Event descriptors without one (Identity == nil on Event) expose no key
// operation, so a non-hashable event can never be hashed by mistake.
type Identity struct {
	Event  string
	Fields []string
}

// Key computes the dedup identity for one occurrence from its raw, pre-decode
// params. The declared field order is fixed, so wire-identical frames always
// produce the same key. A declared field absent from the frame renders as
// "null"; some protocol events declare optional fields hashable.
func (id *Identity) Key(raw map[string]interface{}) string {
	pairs := make([]string, 0, len(id.Fields))
	for _, name := range id.Fields {
		pairs = append(pairs, name+"="+formatRaw(raw[name]))
	}
	return id.Event + ":" + strings.Join(pairs, ",")
}

// formatRaw renders a raw JSON value for the identity string. JSON numbers
// arrive as float64; integral ones print without a fraction so that a wire
// value of 5 keys as "5".
func formatRaw(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Event describes one Domain.eventName notification type.
type Event struct {
	Name     string
	Params   []Field
	Identity *Identity
}

// Catalog is the read-only lookup table the codec runs on: commands and
// events keyed by their full "Domain.name", structures keyed by name. Built
// once at load time and safe for concurrent readers thereafter.
type Catalog struct {
	commands map[string]*Command
	events   map[string]*Event
	structs  map[string]*Struct
}

func New() *Catalog {
	return &Catalog{
		commands: make(map[string]*Command),
		events:   make(map[string]*Event),
		structs:  make(map[string]*Struct),
	}
}

func (c *Catalog) AddCommand(cmd *Command) {
	c.commands[cmd.Method()] = cmd
}

func (c *Catalog) AddEvent(ev *Event) {
	c.events[ev.Name] = ev
}

func (c *Catalog) AddStruct(s *Struct) {
	c.structs[s.Name] = s
}

func (c *Catalog) Command(method string) (*Command, bool) {
	cmd, ok := c.commands[method]
	return cmd, ok
}

func (c *Catalog) Event(name string) (*Event, bool) {
	ev, ok := c.events[name]
	return ev, ok
}

func (c *Catalog) Struct(name string) (*Struct, bool) {
	s, ok := c.structs[name]
	return s, ok
}

// Domains lists the distinct domain names present in the catalog, sorted.
func (c *Catalog) Domains() []string {
	seen := make(map[string]bool)
	for _, cmd := range c.commands {
		seen[cmd.Domain] = true
	}
	for name := range c.events {
		if i := strings.Index(name, "."); i > 0 {
			seen[name[:i]] = true
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
