package cdp

import (
	"encoding/json"
)

// Message is the single wire unit of the protocol. Outbound it carries a
// command (id + method + params); inbound it is either a response (id set)
// or an event notification (method set, no id).
type Message struct {
	ID     int64                  `json:"id,omitempty"`
	Method string                 `json:"method,omitempty"`
	Params map[string]interface{} `json:"params,omitempty"`
	Result json.RawMessage        `json:"result,omitempty"`
	Error  *Error                 `json:"error,omitempty"`
}

// Error is a remote error attached to a response frame. It is delivered to
// the caller verbatim.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func (m *Message) IsCommand() bool {
	return m.ID != 0 && m.Method != ""
}

// IsEvent reports whether the frame is an event notification. Presence of an
// id is the discriminant between responses and events; command ids are
// assigned from 1, so a zero id always means "no id on the wire".
func (m *Message) IsEvent() bool {
	return m.ID == 0 && m.Method != ""
}

func (m *Message) IsResponse() bool {
	return m.ID != 0 && m.Method == ""
}

func ParseMessage(data []byte) (*Message, error) {
	msg := &Message{}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ResultMap decodes the raw result payload of a response frame. A response
// with no result decodes to an empty map.
func (m *Message) ResultMap() (map[string]interface{}, error) {
	if len(m.Result) == 0 {
		return map[string]interface{}{}, nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(m.Result, &out); err != nil {
		return nil, err
	}
	return out, nil
}
