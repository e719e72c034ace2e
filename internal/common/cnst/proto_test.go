package cnst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubprotocol_Constants(t *testing.T) {
	assert.Equal(t, "json.webpubsub.azure.v1", SubprotocolJSON.String())
	assert.Equal(t, "json.reliable.webpubsub.azure.v1", SubprotocolJSONReliable.String())
	assert.Equal(t, "protobuf.webpubsub.azure.v1", SubprotocolProtobuf.String())
	assert.Equal(t, "protobuf.reliable.webpubsub.azure.v1", SubprotocolProtobufReliable.String())
}

func TestAppConstants(t *testing.T) {
	assert.Equal(t, "publisher", AppName)
	assert.Equal(t, "publisher", CommandName)
	assert.Equal(t, "publisher.yaml", PublisherYaml)
}
