package domain

import "errors"

var (
	// ErrNotFound covers any referenced list, entry or group that is absent.
	ErrNotFound = errors.New("not found")

	// ErrNoPendingList means the referenced list does not exist or was
	// already confirmed (stale or replayed confirm button).
	ErrNoPendingList = errors.New("no pending debt list")

	// ErrNotParticipant means the acting identity has no entry in the list.
	ErrNotParticipant = errors.New("not a participant of this debt list")

	// ErrAlreadyInState rejects a no-op paid/unpaid transition so replayed
	// callbacks cannot produce misleading confirmations.
	ErrAlreadyInState = errors.New("debt already in requested state")
)
