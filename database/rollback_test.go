package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVersionKeyParsesValidKey(t *testing.T) {
	v, ok := parseVersionKey("300")
	assert.True(t, ok)
	assert.Equal(t, int64(300), v)
}

func TestParseVersionKeyRejectsMalformedKey(t *testing.T) {
	_, ok := parseVersionKey("not-a-number")
	assert.False(t, ok)
}
