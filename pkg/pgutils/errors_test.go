package pgutils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		unique bool
		fk     bool
	}{
		{name: "nil", err: nil},
		{name: "pgconn unique", err: &pgconn.PgError{Code: CodeUniqueViolation}, unique: true},
		{name: "wrapped pgconn fk", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeForeignKeyViolation}), fk: true},
		{name: "text sqlstate", err: errors.New("duplicate key value (SQLSTATE 23505)"), unique: true},
		{name: "bare code in text is ignored", err: errors.New("row 23505 missing")},
		{name: "unrelated", err: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueViolation(tt.err))
			assert.Equal(t, tt.fk, IsForeignKeyViolation(tt.err))
			assert.False(t, IsNotNullViolation(tt.err))
		})
	}
}

func TestInvalidTextRepresentation(t *testing.T) {
	assert.True(t, IsInvalidTextRepresentation(&pgconn.PgError{Code: CodeInvalidTextRep}))
	assert.False(t, IsInvalidTextRepresentation(&pgconn.PgError{Code: CodeUniqueViolation}))
}
