// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/realtime layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict indicates a stale password version on a token.
	ErrVersionConflict = errors.New("version conflict")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument indicates malformed or missing input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotChatMember indicates the caller is not one of the chat's two members.
	ErrNotChatMember = errors.New("not a chat member")

	// ErrInvariant indicates stored data breaks a structural rule
	// (e.g., a chat without exactly two distinct members).
	ErrInvariant = errors.New("invariant violation")

	// ErrChatExists indicates the two users already share a chat.
	ErrChatExists = errors.New("chat already exists")

	// ErrRequestExists indicates a pending request between the pair.
	ErrRequestExists = errors.New("chat request already exists")

	// ErrSelfRequest indicates a chat request addressed to its own sender.
	ErrSelfRequest = errors.New("cannot request a chat with yourself")
)
