package appointment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPgError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"undefined column", &pgconn.PgError{Code: pgUndefinedColumn}, ErrSchemaMismatch},
		{"undefined table", &pgconn.PgError{Code: pgUndefinedTable}, ErrSchemaMismatch},
		{"duplicate service", &pgconn.PgError{Code: pgUniqueViolation, TableName: "services"}, ErrServiceExists},
		{"duplicate appointment", &pgconn.PgError{Code: pgUniqueViolation, TableName: "appointments"}, ErrDuplicateRecord},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrBackendUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyPgError(tc.err)
			assert.ErrorIs(t, got, tc.want)
			assert.ErrorIs(t, got, tc.err)
		})
	}

	dup := classifyPgError(&pgconn.PgError{Code: pgUniqueViolation, TableName: "appointments"})
	assert.NotErrorIs(t, dup, ErrServiceExists)

	assert.NoError(t, classifyPgError(nil))

	other := errors.New("syntax error")
	assert.Equal(t, other, classifyPgError(other))
}

func TestInsertColumns_OnlyNonEmptyOptionals(t *testing.T) {
	cols, args := insertColumns(Appointment{
		ID:         "a1",
		Status:     StatusBooked,
		FabricType: "Silk",
	})

	assert.Equal(t, append(append([]string(nil), requiredAppointmentColumns...), "fabric_type"), cols)
	assert.Len(t, args, len(cols))
	assert.Equal(t, "Booked", args[6])
	assert.Equal(t, "Silk", args[len(args)-1])

	cols, _ = insertColumns(Appointment{ID: "a2"}.Minimal())
	assert.Equal(t, requiredAppointmentColumns, cols)
}

func TestPlaceholdersAndCoalesced(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", placeholders(3))
	assert.Equal(t, "COALESCE(id, ''), created_at", coalesced([]string{"id", "created_at"}))
}
