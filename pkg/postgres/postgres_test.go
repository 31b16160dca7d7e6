package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateDSN(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"postgres://u:p@localhost:5432/db?sslmode=disable":   "pgx5://u:p@localhost:5432/db?sslmode=disable",
		"postgresql://u:p@localhost:5432/db?sslmode=disable": "pgx5://u:p@localhost:5432/db?sslmode=disable",
		"pgx5://u:p@localhost/db":                            "pgx5://u:p@localhost/db",
		"host=localhost user=u dbname=db":                    "host=localhost user=u dbname=db",
	}
	for in, want := range tests {
		assert.Equal(t, want, MigrateDSN(in), in)
	}
}
