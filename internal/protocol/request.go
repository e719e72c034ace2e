package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DataType declares how the payload of a sendToGroup request is carried
// on the wire.
type DataType string

const (
	DataTypeBinary DataType = "binary"
	DataTypeJSON   DataType = "json"
	DataTypeText   DataType = "text"
)

// Data is a payload validated against its declared data type at
// construction time. The zero value is not usable; build one with
// TextData, JSONData or BinaryData.
type Data struct {
	dataType DataType
	value    json.RawMessage
}

// TextData wraps a plain text payload.
func TextData(s string) Data {
	value, _ := json.Marshal(s)
	return Data{dataType: DataTypeText, value: value}
}

// JSONData wraps a structured payload, rejecting invalid JSON.
func JSONData(raw json.RawMessage) (Data, error) {
	if !json.Valid(raw) {
		return Data{}, fmt.Errorf("invalid json payload")
	}
	return Data{dataType: DataTypeJSON, value: raw}, nil
}

// BinaryData wraps opaque bytes; the JSON subprotocol carries them base64
// encoded.
func BinaryData(b []byte) Data {
	value, _ := json.Marshal(base64.StdEncoding.EncodeToString(b))
	return Data{dataType: DataTypeBinary, value: value}
}

// Type returns the declared data type.
func (d Data) Type() DataType {
	return d.dataType
}

// Request is an outbound client request payload.
type Request interface {
	request()
}

// JoinGroupRequest asks the service to add this connection to a group.
type JoinGroupRequest struct {
	Type  string `json:"type"`
	Group string `json:"group"`
	AckID *int64 `json:"ackId,omitempty"`
}

// LeaveGroupRequest asks the service to remove this connection from a group.
type LeaveGroupRequest struct {
	Type  string `json:"type"`
	Group string `json:"group"`
	AckID *int64 `json:"ackId,omitempty"`
}

// SendToGroupRequest publishes a payload to a group.
type SendToGroupRequest struct {
	Type     string          `json:"type"`
	Group    string          `json:"group"`
	AckID    *int64          `json:"ackId,omitempty"`
	NoEcho   bool            `json:"noEcho"`
	DataType DataType        `json:"dataType"`
	Data     json.RawMessage `json:"data"`
}

func (JoinGroupRequest) request()   {}
func (LeaveGroupRequest) request()  {}
func (SendToGroupRequest) request() {}

// NewJoinGroup builds a joinGroup request. An ackID <= 0 means no
// acknowledgement is requested and the field is omitted from the wire
// payload entirely.
func NewJoinGroup(group string, ackID int64) JoinGroupRequest {
	return JoinGroupRequest{Type: "joinGroup", Group: group, AckID: optionalAckID(ackID)}
}

// NewLeaveGroup builds a leaveGroup request; ackID handling matches
// NewJoinGroup.
func NewLeaveGroup(group string, ackID int64) LeaveGroupRequest {
	return LeaveGroupRequest{Type: "leaveGroup", Group: group, AckID: optionalAckID(ackID)}
}

// NewSendToGroup builds a sendToGroup request carrying the given payload.
func NewSendToGroup(group string, ackID int64, noEcho bool, data Data) SendToGroupRequest {
	return SendToGroupRequest{
		Type:     "sendToGroup",
		Group:    group,
		AckID:    optionalAckID(ackID),
		NoEcho:   noEcho,
		DataType: data.Type(),
		Data:     data.value,
	}
}

func optionalAckID(ackID int64) *int64 {
	if ackID <= 0 {
		return nil
	}
	return &ackID
}

// Encode serializes a request for the JSON subprotocol.
func Encode(r Request) ([]byte, error) {
	return json.Marshal(r)
}
