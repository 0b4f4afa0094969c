package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/db", "pgx5://u:p@localhost:5432/db"},
		{"postgresql://u:p@localhost/db?sslmode=disable", "pgx5://u:p@localhost/db?sslmode=disable"},
		{"pgx5://u:p@localhost/db", "pgx5://u:p@localhost/db"},
		{"u:p@localhost/db", "pgx5://u:p@localhost/db"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, databaseURL(tt.in))
		})
	}
}

func TestValidateFlags(t *testing.T) {
	assert.NoError(t, validateFlags(flags{storagePath: "db", migrationsPath: "m"}))
	assert.ErrorContains(t, validateFlags(flags{migrationsPath: "m"}), storagePathFlag)
}
