package urtc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStunServersDefaultsWhenEmpty(t *testing.T) {
	var c Config
	servers, err := c.stunServers()
	require.NoError(t, err)
	assert.Equal(t, []string{defaultSTUNServer}, servers)
}

func TestConfigStunServersNormalizesPort(t *testing.T) {
	c := Config{STUNServers: []string{"stun.example.com", "stun.example.com:19302"}}
	servers, err := c.stunServers()
	require.NoError(t, err)
	assert.Equal(t, []string{"stun.example.com:3478", "stun.example.com:19302"}, servers)
}

func TestConfigStunServersRejectsEmptyEntry(t *testing.T) {
	c := Config{STUNServers: []string{""}}
	_, err := c.stunServers()
	assert.Equal(t, ErrBadArgument, err)
}
