package flow

import (
	"encoding/json"
	"fmt"
)

// nodeWire is the editor-facing JSON shape of a node: a flat envelope with
// a type-specific "content" payload.
type nodeWire struct {
	ID      string          `json:"id"`
	Type    NodeType        `json:"type"`
	Name    string          `json:"name"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	Content json.RawMessage `json:"content,omitempty"`
}

// MarshalJSON encodes the node in the serialized graph format.
func (n *Node) MarshalJSON() ([]byte, error) {
	w := nodeWire{ID: n.ID, Type: n.Type, Name: n.Name, X: n.X, Y: n.Y}

	var content any
	switch n.Type {
	case NodeTypeMenu:
		content = n.Menu
	case NodeTypeMedia:
		content = n.Media
	case NodeTypeCalendar:
		content = n.Calendar
	case NodeTypeTransfer:
		content = n.Transfer
	case NodeTypeVoicemail:
		content = n.Voicemail
	}
	if content != nil {
		raw, err := json.Marshal(content)
		if err != nil {
			return nil, fmt.Errorf("node %s: encoding content: %w", n.ID, err)
		}
		w.Content = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a node from the serialized graph format,
// dispatching the content payload on the node type.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !validNodeTypes[w.Type] {
		return fmt.Errorf("node %s: %w: %q", w.ID, ErrInvalidNodeType, w.Type)
	}
	n.ID = w.ID
	n.Type = w.Type
	n.Name = w.Name
	n.X = w.X
	n.Y = w.Y

	if len(w.Content) == 0 {
		return nil
	}
	var target any
	switch w.Type {
	case NodeTypeMenu:
		n.Menu = &MenuContent{}
		target = n.Menu
	case NodeTypeMedia:
		n.Media = &MediaContent{}
		target = n.Media
	case NodeTypeCalendar:
		n.Calendar = &CalendarContent{}
		target = n.Calendar
	case NodeTypeTransfer:
		n.Transfer = &TransferContent{}
		target = n.Transfer
	case NodeTypeVoicemail:
		n.Voicemail = &VoicemailContent{}
		target = n.Voicemail
	default:
		// start/hangup carry no content
		return nil
	}
	if err := json.Unmarshal(w.Content, target); err != nil {
		return fmt.Errorf("node %s: decoding %s content: %w", w.ID, w.Type, err)
	}
	return nil
}

// DecodeDefinition parses a serialized FlowDefinition produced by the editor.
func DecodeDefinition(data []byte) (*FlowDefinition, error) {
	var def FlowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decoding flow definition: %w", err)
	}
	return &def, nil
}

// EncodeDefinition serializes a FlowDefinition for the editor.
func EncodeDefinition(def *FlowDefinition) ([]byte, error) {
	data, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encoding flow definition: %w", err)
	}
	return data, nil
}
