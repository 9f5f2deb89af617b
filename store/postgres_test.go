package store

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestNullableKey(t *testing.T) {
	assert.Nil(t, nullableKey(sql.NullString{}))

	key := nullableKey(sql.NullString{String: "abc", Valid: true})
	if assert.NotNil(t, key) {
		assert.Equal(t, "abc", *key)
	}
}

type fakeRow struct{ err error }

func (r fakeRow) Scan(...any) error { return r.err }

func TestScanPublicMapsNoRows(t *testing.T) {
	_, err := scanPublic(fakeRow{err: sql.ErrNoRows})
	assert.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("boom")
	_, err = scanPublic(fakeRow{err: boom})
	assert.ErrorIs(t, err, boom)
}
