// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

/*
TestToPgx5DSN verifies the scheme rewrite required by the pgx/v5 migrate driver.
*/
func TestToPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://aula:pw@db:5432/aula?sslmode=disable", "pgx5://aula:pw@db:5432/aula?sslmode=disable"},
		{"postgresql://aula@db/aula", "pgx5://aula@db/aula"},
		{"pgx5://aula@db/aula", "pgx5://aula@db/aula"},
		{"host=db user=aula", "host=db user=aula"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, toPgx5DSN(tt.in))
		})
	}
}
