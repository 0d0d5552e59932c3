package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// The file format mirrors what a protocol-schema generator emits: named
// structures, commands with params/returns, events with an optional hashable
// field list.
type fileCatalog struct {
	Structs  []fileStruct  `json:"structs"`
	Commands []fileCommand `json:"commands"`
	Events   []fileEvent   `json:"events"`
}

type fileStruct struct {
	Name   string      `json:"name"`
	Fields []fileField `json:"fields"`
}

type fileField struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"` // "primitive", "struct", "array"
	Ref      string `json:"ref,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

type fileCommand struct {
	Domain  string      `json:"domain"`
	Name    string      `json:"name"`
	Params  []fileField `json:"params,omitempty"`
	Returns []fileField `json:"returns,omitempty"`
}

type fileEvent struct {
	Name     string      `json:"name"`
	Params   []fileField `json:"params,omitempty"`
	Hashable []string    `json:"hashable,omitempty"`
}

// Load merges catalog entries from an external generated catalog file into c.
// Later entries win, so a supplied catalog can override the built-in seed.
func (c *Catalog) Load(r io.Reader) error {
	var fc fileCatalog
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	for _, fs := range fc.Structs {
		fields, err := convertFields(fs.Fields)
		if err != nil {
			return fmt.Errorf("struct %s: %w", fs.Name, err)
		}
		c.AddStruct(&Struct{Name: fs.Name, Fields: fields})
	}

	for _, fcmd := range fc.Commands {
		params, err := convertFields(fcmd.Params)
		if err != nil {
			return fmt.Errorf("command %s.%s: %w", fcmd.Domain, fcmd.Name, err)
		}
		returns, err := convertFields(fcmd.Returns)
		if err != nil {
			return fmt.Errorf("command %s.%s: %w", fcmd.Domain, fcmd.Name, err)
		}
		c.AddCommand(&Command{Domain: fcmd.Domain, Name: fcmd.Name, Params: params, Returns: returns})
	}

	for _, fev := range fc.Events {
		params, err := convertFields(fev.Params)
		if err != nil {
			return fmt.Errorf("event %s: %w", fev.Name, err)
		}
		ev := &Event{Name: fev.Name, Params: params}
		if len(fev.Hashable) > 0 {
			ev.Identity = &Identity{Event: fev.Name, Fields: fev.Hashable}
		}
		c.AddEvent(ev)
	}

	return nil
}

// LoadFile merges catalog entries from a JSON file on disk.
func (c *Catalog) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}

func convertFields(ffs []fileField) ([]Field, error) {
	fields := make([]Field, 0, len(ffs))
	for _, ff := range ffs {
		var ref TypeRef
		switch ff.Kind {
		case "", "primitive":
			ref = Primitive()
		case "struct":
			ref = StructOf(ff.Ref)
		case "array":
			ref = ArrayOf(ff.Ref)
		default:
			return nil, fmt.Errorf("field %s: unknown kind %q", ff.Name, ff.Kind)
		}
		if (ref.Kind == KindStruct || ref.Kind == KindArray) && ref.Ref == "" {
			return nil, fmt.Errorf("field %s: kind %q requires a ref", ff.Name, ff.Kind)
		}
		fields = append(fields, Field{Name: ff.Name, Type: ref, Optional: ff.Optional})
	}
	return fields, nil
}
