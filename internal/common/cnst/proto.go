package cnst

// Subprotocol identifies a Web PubSub client subprotocol negotiated
// during the WebSocket handshake.
type Subprotocol string

const (
	SubprotocolJSON             Subprotocol = "json.webpubsub.azure.v1"
	SubprotocolJSONReliable     Subprotocol = "json.reliable.webpubsub.azure.v1"
	SubprotocolProtobuf         Subprotocol = "protobuf.webpubsub.azure.v1"
	SubprotocolProtobufReliable Subprotocol = "protobuf.reliable.webpubsub.azure.v1"
)

func (s Subprotocol) String() string {
	return string(s)
}
