//go:build integration
// +build integration

package locking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"sgengine.dev/engineerr"
	"sgengine.dev/recordstore"
)

// setupCouchDBContainer starts a disposable CouchDB instance, adapted from
// the teacher's db/couchdb_integration_test.go (since removed from the
// tree; the container-setup convention is preserved here).
func setupCouchDBContainer(t *testing.T) (string, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "couchdb:3.3",
		ExposedPorts: []string{"5984/tcp"},
		Env: map[string]string{
			"COUCHDB_USER":     "admin",
			"COUCHDB_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForHTTP("/_up").WithPort("5984/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start couchdb container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5984")
	require.NoError(t, err)

	url := fmt.Sprintf("http://admin:testpass@%s:%s", host, port.Port())

	return url, func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
}

func newTestRecordStoreLocker(t *testing.T) *RecordStoreLocker {
	t.Helper()
	url, cleanup := setupCouchDBContainer(t)
	t.Cleanup(cleanup)

	client, err := recordstore.NewClient(context.Background(), recordstore.Config{
		URL:             url,
		Database:        "locks",
		Timeout:         30 * time.Second,
		CreateIfMissing: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewRecordStoreLocker(client)
}

func TestRecordStoreLockerAcquireReleaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	locker := newTestRecordStoreLocker(t)

	require.NoError(t, locker.Acquire(ctx, "db-specimens", "worker-1", map[string]any{"stage": "commit"}, 0))

	locked, err := locker.IsLocked(ctx, "db-specimens")
	require.NoError(t, err)
	assert.True(t, locked)

	require.NoError(t, locker.Release(ctx, "db-specimens"))

	locked, err = locker.IsLocked(ctx, "db-specimens")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestRecordStoreLockerAcquireFailsWhenAlreadyHeld(t *testing.T) {
	ctx := context.Background()
	locker := newTestRecordStoreLocker(t)

	require.NoError(t, locker.Acquire(ctx, "db-specimens", "worker-1", nil, 0))

	err := locker.Acquire(ctx, "db-specimens", "worker-2", nil, 0)
	require.Error(t, err)

	var contention *engineerr.LockContentionError
	require.ErrorAs(t, err, &contention)
	assert.Equal(t, "worker-1", contention.Holder)
}

func TestRecordStoreLockerSweepsExpiredLockOnAcquire(t *testing.T) {
	ctx := context.Background()
	locker := newTestRecordStoreLocker(t)

	require.NoError(t, locker.Acquire(ctx, "db-specimens", "worker-1", nil, 1))
	time.Sleep(2 * time.Second)

	require.NoError(t, locker.Acquire(ctx, "db-specimens", "worker-2", nil, 0),
		"an expired lock must be swept so a new holder can acquire")

	locked, err := locker.IsLocked(ctx, "db-specimens")
	require.NoError(t, err)
	assert.True(t, locked)
}
