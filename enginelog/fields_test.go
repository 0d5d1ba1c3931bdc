package enginelog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpFieldsSetsDatabaseAndOp(t *testing.T) {
	fields := OpFields("specimens", "commit")
	assert.Equal(t, "specimens", fields["database"])
	assert.Equal(t, "commit", fields["op"])
}

func TestWithRecordAndWithVersionAugmentFields(t *testing.T) {
	fields := OpFields("specimens", "ingest")
	fields = WithRecord(fields, "r1")
	fields = WithVersion(fields, 150)
	assert.Equal(t, "r1", fields["record_id"])
	assert.Equal(t, int64(150), fields["version"])
}

func TestLogOperationReturnsFnError(t *testing.T) {
	logger := New(Config{})
	entry := WithService(logger, Config{Service: "test"})
	boom := errors.New("boom")

	err := LogOperation(entry, OpFields("specimens", "commit"), func() error { return boom })
	require.Error(t, err)
	assert.Equal(t, boom, err)
}

func TestLogOperationReturnsNilOnSuccess(t *testing.T) {
	logger := New(Config{})
	entry := WithService(logger, Config{Service: "test"})

	err := LogOperation(entry, OpFields("specimens", "commit"), func() error { return nil })
	assert.NoError(t, err)
}
