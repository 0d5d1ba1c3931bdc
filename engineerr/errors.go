// Package engineerr defines the structured error taxonomy shared by every
// engine component. Components wrap transport and storage failures into one
// of these types so that callers can branch on the failure kind without
// string matching.
package engineerr

import (
	"fmt"
	"net/http"
)

// ValidationError reports that a record, option, or query value failed a
// structural check before it reached a storage or transport boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field %q: %s", e.Field, e.Reason)
}

// LockContentionError reports that an advisory lock could not be acquired
// because another holder already owns it.
type LockContentionError struct {
	LockID string
	Holder string
}

func (e *LockContentionError) Error() string {
	if e.Holder == "" {
		return fmt.Sprintf("lock %q is held by another process", e.LockID)
	}
	return fmt.Sprintf("lock %q is held by %q", e.LockID, e.Holder)
}

// TransportError wraps a failure returned by the record store or search
// store's underlying HTTP transport, carrying the status code when one is
// available.
type TransportError struct {
	StatusCode int
	ErrorType  string
	Reason     string
	Timeout    bool
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (status %d): %s - %s", e.StatusCode, e.ErrorType, e.Reason)
}

// IsTimeout reports whether the transport failed because the connection or
// request deadline was exceeded, as opposed to an application-level error
// response. The sync driver retries only this class of failure.
func (e *TransportError) IsTimeout() bool {
	return e.Timeout
}

// IsConflict reports whether the transport failed on a revision conflict.
func (e *TransportError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsNotFound reports whether the transport failed because the resource is
// absent.
func (e *TransportError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether the transport rejected the request on
// authentication or authorization grounds.
func (e *TransportError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// BulkItemError describes the failure of a single item within a bulk
// request whose other items may have succeeded.
type BulkItemError struct {
	ID     string
	Error  string
	Reason string
}

func (e *BulkItemError) Error() string {
	return fmt.Sprintf("bulk item %q failed: %s - %s", e.ID, e.Error, e.Reason)
}

// BulkOpException aggregates the per-item failures of a bulk request so
// callers see every rejected item at once instead of only the first.
type BulkOpException struct {
	Items []BulkItemError
}

func (e *BulkOpException) Error() string {
	return fmt.Sprintf("bulk operation failed: %d item(s) rejected", len(e.Items))
}

// PatchError reports that reconstructing a historical version by replaying
// diffs against the current value failed, either because an op referenced a
// path that does not exist or because an op's shape did not match the value
// at that path.
type PatchError struct {
	Version int
	Path    []any
	Reason  string
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch error at version %d, path %v: %s", e.Version, e.Path, e.Reason)
}

// IndexConflictError reports that a search store index's state is
// inconsistent with the expected latest/arc layout, such as a missing latest
// index or an arc above its document cap. No package in this module
// constructs it.
type IndexConflictError struct {
	Index  string
	Reason string
}

func (e *IndexConflictError) Error() string {
	return fmt.Sprintf("index conflict on %q: %s", e.Index, e.Reason)
}
