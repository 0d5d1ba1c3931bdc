package enginelog

import (
	"time"

	"github.com/sirupsen/logrus"
)

// OpFields returns the structured fields every engine operation log line
// carries, rather than folding them into a formatted message (adapted from
// common/logger.go's HTTPFields/DatabaseFields helpers, generalized from
// HTTP/table-operation fields to the engine's own database/record/version
// vocabulary).
func OpFields(database, op string) logrus.Fields {
	return logrus.Fields{"database": database, "op": op}
}

// WithRecord adds a record id to an existing field set.
func WithRecord(fields logrus.Fields, recordID string) logrus.Fields {
	fields["record_id"] = recordID
	return fields
}

// WithVersion adds a version to an existing field set.
func WithVersion(fields logrus.Fields, version int64) logrus.Fields {
	fields["version"] = version
	return fields
}

// LogOperation runs fn, logging its start and completion (with duration)
// under the given fields, and returns fn's error unchanged.
func LogOperation(entry *logrus.Entry, fields logrus.Fields, fn func() error) error {
	start := time.Now()
	entry.WithFields(fields).Debug("operation started")

	err := fn()

	result := entry.WithFields(fields).WithField("duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		result.WithError(err).Error("operation failed")
		return err
	}
	result.Info("operation completed")
	return nil
}
