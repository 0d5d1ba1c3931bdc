package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgengine.dev/syncdriver"
)

func TestNewDefaultsLockOwnerToHostname(t *testing.T) {
	d := New(Config{Name: "specimens"}, nil, nil, nil, nil, syncdriver.DefaultConfig(), nil)
	hostname, err := os.Hostname()
	require.NoError(t, err)
	assert.Equal(t, hostname, d.owner)
}

func TestNewKeepsExplicitLockOwner(t *testing.T) {
	d := New(Config{Name: "specimens", LockOwner: "worker-3"}, nil, nil, nil, nil, syncdriver.DefaultConfig(), nil)
	assert.Equal(t, "worker-3", d.owner)
}

func TestNewDefaultsMaxDocsPerArc(t *testing.T) {
	d := New(Config{Name: "specimens"}, nil, nil, nil, nil, syncdriver.DefaultConfig(), nil)
	assert.Equal(t, 10000, d.maxDocsPerArc)
}

func TestNewKeepsExplicitMaxDocsPerArc(t *testing.T) {
	d := New(Config{Name: "specimens", MaxDocsPerArc: 500}, nil, nil, nil, nil, syncdriver.DefaultConfig(), nil)
	assert.Equal(t, 500, d.maxDocsPerArc)
}

func TestNewBuildsLoggerWhenNoneGiven(t *testing.T) {
	d := New(Config{Name: "specimens"}, nil, nil, nil, nil, syncdriver.DefaultConfig(), nil)
	require.NotNil(t, d.log)
	assert.Equal(t, "database", d.log.Data["service"])
}

func TestLockIDIsNamespacedByDatabaseName(t *testing.T) {
	d := &Database{name: "specimens"}
	assert.Equal(t, "db:specimens", d.lockID())
}

func TestAsLockContentionErrorRejectsOtherErrorTypes(t *testing.T) {
	var err error = &lockContentionStub{}
	_, ok := asLockContentionError(err)
	assert.False(t, ok)
}

type lockContentionStub struct{}

func (*lockContentionStub) Error() string { return "stub" }
