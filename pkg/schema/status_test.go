package schema_test

import (
	"testing"

	// Packages
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
	assert "github.com/stretchr/testify/assert"
)

func Test_status_001(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("disconnected", schema.StatusDisconnected.String())
	assert.Equal("connected", schema.StatusConnected.String())

	var s schema.Status
	assert.NoError(s.UnmarshalText([]byte("connected")))
	assert.Equal(schema.StatusConnected, s)
	assert.Error(s.UnmarshalText([]byte("connecting")))
}

func Test_payload_001(t *testing.T) {
	assert := assert.New(t)
	var p *schema.Payload
	assert.False(p.IsList())
	assert.True((&schema.Payload{Type: schema.PayloadList}).IsList())
	assert.False((&schema.Payload{Type: "table"}).IsList())
}
