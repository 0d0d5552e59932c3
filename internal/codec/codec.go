// Package codec builds outbound command envelopes and decodes inbound result
// and event payloads against the protocol catalog.
package codec

import (
	"fmt"

	"cdpclient/internal/catalog"
	"cdpclient/internal/cdp"
)

// Encode builds the outbound envelope for domain.method from the supplied
// arguments and returns the declared result schema alongside it, so the
// response can later be decoded without consulting the catalog again. The
// envelope id is left unset; the correlator assigns it when the command is
// issued.
//
// Omitted optional parameters leave no key in the payload. An unknown
// method, a missing required parameter, or an argument the catalog does not
// declare is a SchemaError, raised before anything reaches the wire.
func Encode(cat *catalog.Catalog, domain, method string, args map[string]interface{}) (*cdp.Message, []catalog.Field, error) {
	full := domain + "." + method

	cmd, ok := cat.Command(full)
	if !ok {
		return nil, nil, &cdp.SchemaError{Method: full, Reason: "unknown method"}
	}

	declared := make(map[string]bool, len(cmd.Params))
	params := make(map[string]interface{})

	for _, f := range cmd.Params {
		declared[f.Name] = true

		v, present := args[f.Name]
		if !present || v == nil {
			if !f.Optional {
				return nil, nil, &cdp.SchemaError{Method: full, Reason: fmt.Sprintf("missing required parameter %q", f.Name)}
			}
			continue
		}
		params[f.Name] = v
	}

	for name := range args {
		if !declared[name] {
			return nil, nil, &cdp.SchemaError{Method: full, Reason: fmt.Sprintf("unrecognized parameter %q", name)}
		}
	}

	return &cdp.Message{Method: full, Params: params}, cmd.Returns, nil
}

// DecodeResult decodes a raw response result map against the declared result
// fields. A required field missing from the payload means the remote did not
// honor its own schema and is a ProtocolViolation; keys the catalog does not
// declare are ignored for forward compatibility.
func DecodeResult(cat *catalog.Catalog, returns []catalog.Field, raw map[string]interface{}) (map[string]interface{}, error) {
	return decodeFields(cat, "result", returns, raw)
}

// Occurrence is one decoded event notification. Key is the dedup identity
// for hashable event types and empty otherwise.
type Occurrence struct {
	Name   string
	Fields map[string]interface{}
	Raw    map[string]interface{}
	Key    string
}

// DecodeEvent decodes a raw event params map into an Occurrence, computing
// the dedup identity from the pre-decode raw values when the event type
// declares one.
func DecodeEvent(cat *catalog.Catalog, ev *catalog.Event, raw map[string]interface{}) (*Occurrence, error) {
	if raw == nil {
		raw = map[string]interface{}{}
	}

	fields, err := decodeFields(cat, ev.Name, ev.Params, raw)
	if err != nil {
		return nil, err
	}

	occ := &Occurrence{
		Name:   ev.Name,
		Fields: fields,
		Raw:    raw,
	}
	if ev.Identity != nil {
		occ.Key = ev.Identity.Key(raw)
	}
	return occ, nil
}

func decodeFields(cat *catalog.Catalog, context string, fields []catalog.Field, raw map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))

	for _, f := range fields {
		v, present := raw[f.Name]
		if !present || v == nil {
			// A wire-null optional structure decodes to absent, never to
			// a zero-valued instance.
			if !f.Optional {
				return nil, &cdp.ProtocolViolation{
					Context: context,
					Reason:  fmt.Sprintf("missing required field %q", f.Name),
				}
			}
			continue
		}

		decoded, err := decodeValue(cat, context+"."+f.Name, f.Type, v)
		if err != nil {
			return nil, err
		}
		out[f.Name] = decoded
	}

	return out, nil
}

func decodeValue(cat *catalog.Catalog, context string, t catalog.TypeRef, v interface{}) (interface{}, error) {
	switch t.Kind {
	case catalog.KindPrimitive:
		return v, nil

	case catalog.KindStruct:
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, &cdp.ProtocolViolation{
				Context: context,
				Reason:  fmt.Sprintf("expected object of type %s, got %T", t.Ref, v),
			}
		}
		s, ok := cat.Struct(t.Ref)
		if !ok {
			return nil, &cdp.ProtocolViolation{
				Context: context,
				Reason:  fmt.Sprintf("unknown structure type %q", t.Ref),
			}
		}
		return decodeFields(cat, context, s.Fields, m)

	case catalog.KindArray:
		list, ok := v.([]interface{})
		if !ok {
			return nil, &cdp.ProtocolViolation{
				Context: context,
				Reason:  fmt.Sprintf("expected array of %s, got %T", t.Ref, v),
			}
		}
		out := make([]interface{}, 0, len(list))
		for i, elem := range list {
			decoded, err := decodeValue(cat, fmt.Sprintf("%s[%d]", context, i), catalog.StructOf(t.Ref), elem)
			if err != nil {
				return nil, err
			}
			out = append(out, decoded)
		}
		return out, nil

	default:
		return nil, &cdp.ProtocolViolation{
			Context: context,
			Reason:  fmt.Sprintf("unknown type kind %d", t.Kind),
		}
	}
}
