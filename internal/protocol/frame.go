package protocol

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Frame is an inbound payload classified by Decode.
type Frame interface {
	frame()
}

// Ack is a service acknowledgement for an ack-tracked request.
type Ack struct {
	Type    string    `json:"type"`
	AckID   int64     `json:"ackId"`
	Success bool      `json:"success"`
	Error   *AckError `json:"error,omitempty"`
}

// AckError carries the service-reported failure for an unsuccessful ack.
// Name is one of Forbidden, InternalServerError or Duplicate.
type AckError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Message is a data frame published to a group this connection receives.
type Message struct {
	Type       string `json:"type"`
	From       string `json:"from"`
	Group      string `json:"group"`
	DataType   string `json:"dataType"`
	Data       string `json:"data"`
	FromUserID string `json:"fromUserId,omitempty"`
}

// Unrecognized carries a payload that matches neither the ack nor the
// message shape, unchanged.
type Unrecognized struct {
	Raw []byte
}

func (Ack) frame()          {}
func (Message) frame()      {}
func (Unrecognized) frame() {}

// Decode classifies an inbound payload. Matching is structural and
// ordered: the ack shape wins over the message shape, and anything else
// degrades to Unrecognized. Decode never fails; a malformed payload must
// not take down the receive loop.
func Decode(payload []byte) Frame {
	if !gjson.ValidBytes(payload) {
		return Unrecognized{Raw: payload}
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return Unrecognized{Raw: payload}
	}

	if hasFields(root, "type", "ackId", "success") {
		var ack Ack
		if err := json.Unmarshal(payload, &ack); err == nil {
			return ack
		}
	}

	if hasFields(root, "type", "from", "group", "dataType", "data") &&
		root.Get("data").Type == gjson.String {
		var msg Message
		if err := json.Unmarshal(payload, &msg); err == nil {
			return msg
		}
	}

	return Unrecognized{Raw: payload}
}

func hasFields(root gjson.Result, fields ...string) bool {
	for _, f := range fields {
		if !root.Get(f).Exists() {
			return false
		}
	}
	return true
}
