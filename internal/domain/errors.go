package domain

import "errors"

var (
	// ErrNoKey is returned when no session key is stored, or the stored key
	// had already expired and was discarded.
	ErrNoKey = errors.New("no session key stored")

	// ErrDecryptFailed is returned when the password is wrong or the stored
	// ciphertext is corrupt. Distinct from ErrNoKey.
	ErrDecryptFailed = errors.New("wrong password or corrupted session key")

	// ErrQueueFull is returned by Send when the outbound queue is at capacity.
	ErrQueueFull = errors.New("outbound queue full")

	// ErrMaxReconnectAttempts signals terminal transport failure after the
	// reconnect attempt cap. Reported to observers, never auto-retried.
	ErrMaxReconnectAttempts = errors.New("max reconnect attempts exceeded")

	// ErrWaitTimeout is returned by one-shot waits that saw no matching
	// message before their deadline.
	ErrWaitTimeout = errors.New("timed out waiting for message")

	// ErrConnectionTimeout is returned when the transport did not reach the
	// open state within the allowed wait.
	ErrConnectionTimeout = errors.New("timed out waiting for connection")

	// ErrInvalidResponse is returned when a relay payload does not carry the
	// expected fields.
	ErrInvalidResponse = errors.New("malformed relay response")
)
