package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_AckIDPresence(t *testing.T) {
	// ackId absent: no key at all, never 0.
	payload, err := Encode(NewJoinGroup("DemoGroup", 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"joinGroup","group":"DemoGroup"}`, string(payload))
	assert.NotContains(t, string(payload), "ackId")

	payload, err = Encode(NewLeaveGroup("DemoGroup", 7))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"leaveGroup","group":"DemoGroup","ackId":7}`, string(payload))
}

func TestEncode_SendToGroup(t *testing.T) {
	payload, err := Encode(NewSendToGroup("DemoGroup", 1, false, TextData("hello")))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"sendToGroup","group":"DemoGroup","ackId":1,"noEcho":false,"dataType":"text","data":"hello"}`,
		string(payload))
}

func TestEncode_SendToGroupJSON(t *testing.T) {
	data, err := JSONData(json.RawMessage(`{"temp":21}`))
	require.NoError(t, err)
	payload, err := Encode(NewSendToGroup("g", 0, true, data))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"sendToGroup","group":"g","noEcho":true,"dataType":"json","data":{"temp":21}}`,
		string(payload))
}

func TestJSONData_Invalid(t *testing.T) {
	_, err := JSONData(json.RawMessage(`{"broken":`))
	assert.Error(t, err)
}

func TestBinaryData_Base64(t *testing.T) {
	payload, err := Encode(NewSendToGroup("g", 0, false, BinaryData([]byte{0x01, 0x02})))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"sendToGroup","group":"g","noEcho":false,"dataType":"binary","data":"AQI="}`,
		string(payload))
}

func TestDecode_Ack(t *testing.T) {
	frame := Decode([]byte(`{"type":"ack","ackId":1,"success":false,"error":{"name":"Forbidden","message":"no access"}}`))
	ack, ok := frame.(Ack)
	require.True(t, ok)
	assert.Equal(t, int64(1), ack.AckID)
	assert.False(t, ack.Success)
	require.NotNil(t, ack.Error)
	assert.Equal(t, "Forbidden", ack.Error.Name)
	assert.Equal(t, "no access", ack.Error.Message)
}

func TestDecode_AckSuccessWithoutError(t *testing.T) {
	frame := Decode([]byte(`{"type":"ack","ackId":3,"success":true}`))
	ack, ok := frame.(Ack)
	require.True(t, ok)
	assert.True(t, ack.Success)
	assert.Nil(t, ack.Error)
}

func TestDecode_Message(t *testing.T) {
	frame := Decode([]byte(`{"type":"message","from":"group","group":"DemoGroup","dataType":"text","data":"hello","fromUserId":"u1"}`))
	msg, ok := frame.(Message)
	require.True(t, ok)
	assert.Equal(t, "hello", msg.Data)
	assert.Equal(t, "DemoGroup", msg.Group)
	assert.Equal(t, "u1", msg.FromUserID)
}

func TestDecode_MessageWithoutFromUserID(t *testing.T) {
	frame := Decode([]byte(`{"type":"message","from":"group","group":"g","dataType":"text","data":"hi"}`))
	msg, ok := frame.(Message)
	require.True(t, ok)
	assert.Empty(t, msg.FromUserID)
}

func TestDecode_AdversarialPrefersAck(t *testing.T) {
	// Carries both shapes; ordered matching resolves it as an ack.
	payload := []byte(`{"type":"x","ackId":5,"success":true,"from":"group","group":"g","dataType":"text","data":"hi"}`)
	frame := Decode(payload)
	_, ok := frame.(Ack)
	assert.True(t, ok)
}

func TestDecode_Unrecognized(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"plain text", "just some text"},
		{"json array", `[1,2,3]`},
		{"incomplete message shape", `{"type":"message","group":"g"}`},
		{"non-string message data", `{"type":"message","from":"group","group":"g","dataType":"json","data":{"k":1}}`},
		{"mistyped ack and no message shape", `{"type":"ack","ackId":"one","success":"yes"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := Decode([]byte(tt.payload))
			raw, ok := frame.(Unrecognized)
			require.True(t, ok)
			assert.Equal(t, tt.payload, string(raw.Raw))
		})
	}
}

func TestRoundTrip_EchoedSendBecomesMessage(t *testing.T) {
	// Simulate a no-op broker echo: the data in a text sendToGroup request
	// comes back verbatim in a message frame.
	payload, err := Encode(NewSendToGroup("DemoGroup", 1, false, TextData("hello")))
	require.NoError(t, err)

	var sent SendToGroupRequest
	require.NoError(t, json.Unmarshal(payload, &sent))

	echo, err := json.Marshal(map[string]any{
		"type":     "message",
		"from":     "group",
		"group":    sent.Group,
		"dataType": sent.DataType,
		"data":     json.RawMessage(sent.Data),
	})
	require.NoError(t, err)

	frame := Decode(echo)
	msg, ok := frame.(Message)
	require.True(t, ok)
	assert.Equal(t, "hello", msg.Data)
}
