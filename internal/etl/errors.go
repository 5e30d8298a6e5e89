package etl

// Error codes reference
//
// Unit failures and service errors are mapped to a code that users can
// quote to support, the same way validation issues carry STR/IDN/RNG codes.
//
//	DB001  - Duplicate match: the match was already loaded
//	DB002  - Unique constraint: a natural key already exists
//	DB003  - Foreign key: a referenced row does not exist
//	DB004  - Connection: the database could not be reached
//	DB006  - Timeout: the unit transaction ran out of time
//	DB007  - Deadlock: conflicting writers, retry
//	LD001  - Unknown position: the position code is not seeded
//	LD002  - Incomplete unit: the match does not have six team rows
//	RUN001 - System busy: too many runs in progress
//	RUN002 - Run not found: the run id is unknown or expired
//	RUN003 - Cancelled: the run was cancelled
//	RATE001 - Rate limited: too many requests
//	ERR000 - Unknown error
//
// Sentinel errors and Postgres error codes are matched first; the pattern
// table catches errors that only survive as text. Patterns match
// case-insensitively and the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/statsetl/internal/load"
)

// UserMessage is a user-facing explanation of an error.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

var (
	msgDuplicateMatch = UserMessage{
		Message: "This match has already been loaded",
		Action:  "Remove the sheet or delete the existing match before reloading",
		Code:    "DB001",
	}
	msgUnique = UserMessage{
		Message: "A value that must be unique already exists",
		Action:  "Check the sheet for repeated player names",
		Code:    "DB002",
	}
	msgForeignKey = UserMessage{
		Message: "A referenced record does not exist",
		Action:  "Run the database migrations and try again",
		Code:    "DB003",
	}
	msgConnection = UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}
	msgTimeout = UserMessage{
		Message: "The load timed out",
		Action:  "Try again later",
		Code:    "DB006",
	}
	msgDeadlock = UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}
	msgUnknownPosition = UserMessage{
		Message: "A player position is not recognised",
		Action:  "Use GK, DEF, MID or FWD",
		Code:    "LD001",
	}
	msgIncompleteUnit = UserMessage{
		Message: "The match is missing team statistics",
		Action:  "Provide first half, second half and full time rows for both teams",
		Code:    "LD002",
	}
	msgTooManyRuns = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "RUN001",
	}
	msgRunNotFound = UserMessage{
		Message: "Run not found",
		Action:  "The run may have expired. Please upload the file again",
		Code:    "RUN002",
	}
	msgCancelled = UserMessage{
		Message: "The run was cancelled",
		Action:  "Start a new upload when ready",
		Code:    "RUN003",
	}
)

// pgCodes maps Postgres SQLSTATE codes to messages.
var pgCodes = map[string]UserMessage{
	"23505": msgUnique,
	"23503": msgForeignKey,
	"40P01": msgDeadlock,
	"57014": msgTimeout, // query_canceled by statement_timeout
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"already exists", msgDuplicateMatch},
	{"duplicate key", msgUnique},
	{"violates unique", msgUnique},
	{"violates foreign key", msgForeignKey},
	{"connection refused", msgConnection},
	{"connection reset", msgConnection},
	{"failed to connect", msgConnection},
	{"deadline exceeded", msgTimeout},
	{"timeout", msgTimeout},
	{"deadlock", msgDeadlock},
	{"too many concurrent runs", msgTooManyRuns},
	{"run not found", msgRunNotFound},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-facing message. A nil error maps to
// the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, load.ErrMatchExists):
		return msgDuplicateMatch
	case errors.Is(err, load.ErrUnknownPosition):
		return msgUnknownPosition
	case errors.Is(err, load.ErrIncompleteUnit):
		return msgIncompleteUnit
	case errors.Is(err, ErrTooManyRuns):
		return msgTooManyRuns
	case errors.Is(err, ErrRunNotFound):
		return msgRunNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.Is(err, context.Canceled):
		return msgCancelled
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := pgCodes[pgErr.Code]; ok {
			return msg
		}
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return msgConnection
	}

	text := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(text, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// UserMessageFor formats err as "Message (Code: XXX). Action".
func UserMessageFor(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
