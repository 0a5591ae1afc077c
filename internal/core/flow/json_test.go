package flow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFlowJSON = `{
  "id": "support-line",
  "name": "Support Line",
  "nodes": [
    {"id": "start", "type": "start", "name": "Start", "x": 40, "y": 80},
    {"id": "main-menu", "type": "menu", "name": "Main Menu", "x": 220, "y": 80,
     "content": {"prompt": "Press 1 for sales.", "timeout_sec": 7,
                 "options": [{"key": "1", "label": "Sales"}]}},
    {"id": "hours", "type": "calendar", "name": "Business Hours", "x": 400, "y": 80,
     "content": {"timezone": "Europe/Paris",
                 "events": [{"id": "open", "name": "Open", "kind": "open", "recurring": true,
                             "weekdays": ["mon", "tue", "wed", "thu", "fri"],
                             "start_time": "09:00", "end_time": "18:00"}]}},
    {"id": "bye", "type": "hangup", "name": "Goodbye", "x": 580, "y": 80}
  ],
  "connections": [
    {"id": "c1", "fromNodeId": "start", "fromPortId": "out",
     "toNodeId": "main-menu", "toPortId": "in"}
  ]
}`

func TestDecodeDefinition(t *testing.T) {
	def, err := DecodeDefinition([]byte(sampleFlowJSON))
	require.NoError(t, err)

	assert.Equal(t, "support-line", def.ID)
	assert.Equal(t, "Support Line", def.Name)
	require.Len(t, def.Nodes, 4)
	require.Len(t, def.Connections, 1)

	menu, ok := def.NodeByID("main-menu")
	require.True(t, ok)
	require.NotNil(t, menu.Menu)
	assert.Equal(t, "Press 1 for sales.", menu.Menu.Prompt)
	assert.Equal(t, 7, menu.Menu.TimeoutSec)
	require.Len(t, menu.Menu.Options, 1)
	assert.Equal(t, "1", menu.Menu.Options[0].Key)

	cal, ok := def.NodeByID("hours")
	require.True(t, ok)
	require.NotNil(t, cal.Calendar)
	assert.Equal(t, "Europe/Paris", cal.Calendar.Timezone)
	require.Len(t, cal.Calendar.Events, 1)
	assert.Equal(t, EventKindOpen, cal.Calendar.Events[0].Kind)
	assert.True(t, cal.Calendar.Events[0].Recurring)

	conn := def.Connections[0]
	assert.Equal(t, "start", conn.FromNodeID)
	assert.Equal(t, PortOut, conn.FromPortID)
	assert.Equal(t, "main-menu", conn.ToNodeID)
	assert.Equal(t, PortIn, conn.ToPortID)
}

func TestDecodeDefinition_Errors(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		_, err := DecodeDefinition([]byte("{not json"))
		assert.Error(t, err)
	})

	t.Run("unknown node type", func(t *testing.T) {
		_, err := DecodeDefinition([]byte(`{"id":"f","name":"f","nodes":[{"id":"n1","type":"teleport","name":"N"}]}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidNodeType)
	})
}

func TestEncodeDefinition_Roundtrip(t *testing.T) {
	def, err := DecodeDefinition([]byte(sampleFlowJSON))
	require.NoError(t, err)

	data, err := EncodeDefinition(def)
	require.NoError(t, err)

	again, err := DecodeDefinition(data)
	require.NoError(t, err)
	assert.Equal(t, def, again)
}

func TestNode_MarshalJSON_ContentKey(t *testing.T) {
	t.Run("hangup emits no content key", func(t *testing.T) {
		data, err := json.Marshal(hangupNode("bye"))
		require.NoError(t, err)
		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &raw))
		_, hasContent := raw["content"]
		assert.False(t, hasContent)
	})

	t.Run("transfer content nests under content", func(t *testing.T) {
		n := &Node{ID: "xfer", Type: NodeTypeTransfer, Name: "Transfer",
			Transfer: &TransferContent{Destination: "sip:support@pbx"}}
		data, err := json.Marshal(n)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"content"`)
		assert.Contains(t, string(data), `"sip:support@pbx"`)
	})
}
