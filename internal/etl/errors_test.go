package etl

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/statsetl/internal/load"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		// =========================================================================
		// Sentinels
		// =========================================================================
		{"duplicate match", &load.StageError{Stage: load.StageCheckDuplicate, Err: load.ErrMatchExists}, "DB001"},
		{"unknown position", fmt.Errorf("#4 A Player: %w", load.ErrUnknownPosition), "LD001"},
		{"incomplete unit", load.ErrIncompleteUnit, "LD002"},
		{"too many runs", ErrTooManyRuns, "RUN001"},
		{"run not found", fmt.Errorf("%w: abc", ErrRunNotFound), "RUN002"},
		{"unit timeout", fmt.Errorf("commit: %w", context.DeadlineExceeded), "DB006"},
		{"cancelled", context.Canceled, "RUN003"},

		// =========================================================================
		// Postgres codes
		// =========================================================================
		{"unique violation", &pgconn.PgError{Code: "23505"}, "DB002"},
		{"foreign key", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), "DB003"},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, "DB007"},

		// =========================================================================
		// Text patterns
		// =========================================================================
		{"connection refused", errors.New("dial tcp: Connection Refused"), "DB004"},
		{"connection reset", errors.New("read: connection reset by peer"), "DB004"},
		{"duplicate key text", errors.New("ERROR: duplicate key value"), "DB002"},
		{"rate limited", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, MapError(tt.err).Code)
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Equal(t, UserMessage{}, MapError(nil))
	assert.Empty(t, UserMessageFor(nil))
	assert.False(t, IsUserFacing(nil))
}

func TestUserMessageFor(t *testing.T) {
	got := UserMessageFor(load.ErrMatchExists)
	assert.Equal(t, "This match has already been loaded (Code: DB001). Remove the sheet or delete the existing match before reloading", got)
}

func TestIsUserFacing(t *testing.T) {
	assert.True(t, IsUserFacing(load.ErrMatchExists))
	assert.False(t, IsUserFacing(errors.New("something odd")))
}
