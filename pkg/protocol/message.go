// Package protocol defines the wire messages exchanged with the browser.
package protocol

import "strconv"

// Reserved event names. Everything else is a form event.
const (
	EventJoin      = "phx_join"
	EventLeave     = "phx_leave"
	EventHeartbeat = "heartbeat"
	EventReply     = "phx_reply"
	EventRender    = "render"
	EventError     = "error"
)

// Message is one frame in either direction.
type Message struct {
	// Ref correlates a reply with its request.
	Ref string `json:"ref,omitempty" msgpack:"ref,omitempty"`

	// Topic is the channel this message belongs to (e.g. "lv:socket-id").
	Topic string `json:"topic" msgpack:"topic"`

	// Event is the event name (e.g. "toggle_activity", "submit").
	Event string `json:"event" msgpack:"event"`

	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// Reply builds a reply to the message with ref.
func Reply(ref, topic, status string, response map[string]any) *Message {
	payload := map[string]any{"status": status}
	if response != nil {
		payload["response"] = response
	}
	return &Message{
		Ref:     ref,
		Topic:   topic,
		Event:   EventReply,
		Payload: payload,
	}
}

// ErrorReply builds an error reply carrying reason.
func ErrorReply(ref, topic, reason string) *Message {
	return &Message{
		Ref:     ref,
		Topic:   topic,
		Event:   EventError,
		Payload: map[string]any{"reason": reason},
	}
}

// PayloadString returns payload[key] as a string.
func PayloadString(payload map[string]any, key string) string {
	v, _ := payload[key].(string)
	return v
}

// PayloadInt returns payload[key] as an int. JSON numbers arrive as
// float64 and msgpack numbers as the smallest fitting integer type; numeric
// strings (form values) are parsed. ok is false when no integer is there.
func PayloadInt(payload map[string]any, key string) (n int, ok bool) {
	switch v := payload[key].(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), v == float64(int(v))
	case float32:
		return int(v), v == float32(int(v))
	case string:
		i, err := strconv.Atoi(v)
		return i, err == nil
	default:
		return 0, false
	}
}

// PayloadBool returns payload[key] as a bool. Checkbox values "on" and
// "true" count as true.
func PayloadBool(payload map[string]any, key string) bool {
	switch v := payload[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "on" || v == "1"
	default:
		return false
	}
}
