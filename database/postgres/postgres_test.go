package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSNFromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_USER", "facegate")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "facegate")
	t.Setenv("DB_SSLMODE", "")

	assert.Equal(t, "host=db port=5432 user=facegate password=pw dbname=facegate sslmode=disable", DSN())
}

func TestDSNPrefersURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/x?sslmode=disable")
	assert.Equal(t, "postgres://u:p@localhost/x?sslmode=disable", DSN())
}
