package storage

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWithRetry(t *testing.T) {
	errLocked := errors.New("locked")

	tests := []struct {
		name         string
		failures     int
		attempts     uint64
		wantErr      bool
		wantAttempts int
	}{
		{name: "first attempt", failures: 0, attempts: 3, wantAttempts: 1},
		{name: "succeeds after retries", failures: 2, attempts: 3, wantAttempts: 3},
		{name: "exhausted", failures: 5, attempts: 3, wantErr: true, wantAttempts: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := OpenOptions{
				Logger:    slog.New(slog.DiscardHandler),
				Attempts:  tt.attempts,
				BaseDelay: time.Millisecond,
				MaxDelay:  2 * time.Millisecond,
			}

			calls := 0
			err := OpenWithRetry(context.Background(), "test.db", opts, func(ctx context.Context) error {
				calls++
				if calls <= tt.failures {
					return errLocked
				}
				return nil
			})

			assert.Equal(t, tt.wantAttempts, calls)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			var openErr *StorageOpenError
			require.ErrorAs(t, err, &openErr)
			assert.Equal(t, tt.wantAttempts, openErr.Attempts)
			assert.Equal(t, "test.db", openErr.Path)
			assert.ErrorIs(t, err, errLocked)
		})
	}
}

func TestOpenOptions_WithDefaults(t *testing.T) {
	got := OpenOptions{Attempts: 7}.WithDefaults()
	def := DefaultOpenOptions()

	assert.Equal(t, uint64(7), got.Attempts)
	assert.Equal(t, def.BaseDelay, got.BaseDelay)
	assert.Equal(t, def.LockTimeout, got.LockTimeout)
	assert.NotNil(t, got.Logger)
}

func TestChangeset_IsEmpty(t *testing.T) {
	assert.True(t, (&Changeset{}).IsEmpty())
	assert.True(t, (&Changeset{SkipDuplicates: true}).IsEmpty())
	assert.False(t, (&Changeset{ClearLog: true}).IsEmpty())
	assert.False(t, (&Changeset{ClientID: "client-a1"}).IsEmpty())
}
