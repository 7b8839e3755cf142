package sqlxrepos

import (
	"strings"
	"testing"

	"github.com/trezcool/darasa/core"
)

func Test_applyProgramOrdering(t *testing.T) {
	base := psql.Select(programColumns...).From("programs")

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		wantSQL  string
	}{
		{
			name:    "defaults to id order",
			wantSQL: "ORDER BY id",
		},
		{
			name:     "known fields pass through",
			ordering: []core.DBOrdering{{Field: "name", Ascending: true}, {Field: "subject"}},
			wantSQL:  "ORDER BY name ASC, subject DESC",
		},
		{
			name:     "unknown field orders by id",
			ordering: []core.DBOrdering{{Field: "created_at", Ascending: true}},
			wantSQL:  "ORDER BY id ASC",
		},
		{
			name:     "hostile field never reaches the SQL",
			ordering: []core.DBOrdering{{Field: "(SELECT password_hash FROM users LIMIT 1)", Ascending: true}},
			wantSQL:  "ORDER BY id ASC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, _, err := applyProgramOrdering(base, tt.ordering).ToSql()
			if err != nil {
				t.Fatalf("ToSql() failed: %v", err)
			}
			if !strings.HasSuffix(query, tt.wantSQL) {
				t.Errorf("query = %q; want suffix %q", query, tt.wantSQL)
			}
			if strings.Contains(query, "password_hash") {
				t.Errorf("requested field reached raw SQL: %q", query)
			}
		})
	}
}
