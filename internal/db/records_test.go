package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaIA/identity-ocr-service/internal/idparse"
)

func TestIdentityRecordRoundTrip(t *testing.T) {
	rec := idparse.Record{
		Name:        idparse.Field{Value: "JOHN TAN", Confident: true},
		IDNumber:    idparse.Field{Value: "S1234567A"},
		Nationality: idparse.Field{Value: "SINGAPOREAN", Confident: true},
		Gender:      idparse.Field{Value: "M", Confident: true},
	}

	stored := NewIdentityRecord(&rec)
	assert.Equal(t, "JOHN TAN", stored.Name)
	assert.Equal(t, "S1234567A", stored.IDNumber)
	assert.Equal(t, []string{"name", "nationality", "gender"}, stored.ConfidentFields)
	assert.False(t, stored.FullyConfident)

	assert.Equal(t, rec, stored.Record())
}

func TestQueriesWithoutDatabase(t *testing.T) {
	require.Nil(t, Pool)
	ctx := context.Background()

	assert.ErrorIs(t, SaveRecord(ctx, &IdentityRecord{}), ErrNoDatabase)
	_, _, err := GetRecordsPaginated(ctx, "", 10, 0)
	assert.ErrorIs(t, err, ErrNoDatabase)
	_, err = GetRecordByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNoDatabase)
	assert.ErrorIs(t, DeleteRecord(ctx, uuid.New()), ErrNoDatabase)
	_, err = GetRecordStats(ctx)
	assert.ErrorIs(t, err, ErrNoDatabase)
	assert.ErrorIs(t, Ping(ctx), ErrNoDatabase)
}

func TestURLFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	assert.Empty(t, URLFromEnv())

	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "ocr")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "identity")
	t.Setenv("DB_PORT", "")
	assert.Equal(t, "postgresql://ocr:secret@db:5432/identity?sslmode=disable", URLFromEnv())

	t.Setenv("DATABASE_URL", "postgres://elsewhere/db")
	assert.Equal(t, "postgres://elsewhere/db", URLFromEnv())
}
