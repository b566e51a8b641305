package assistant

import "errors"

// Error kinds recorded on an Outcome. None of them reach the chat user;
// they exist so callers can count and log what actually happened.
var (
	// ErrNotFound means the classified intent matched zero records.
	ErrNotFound = errors.New("assistant: no matching records")
	// ErrStorageUnavailable means a record fetch failed and was treated as empty.
	ErrStorageUnavailable = errors.New("assistant: record store unavailable")
	// ErrRemoteUnavailable means the remote model call failed and the local
	// reply was used.
	ErrRemoteUnavailable = errors.New("assistant: remote model unavailable")
	// ErrInternal means composition itself failed and the apology was returned.
	ErrInternal = errors.New("assistant: internal error")
)
