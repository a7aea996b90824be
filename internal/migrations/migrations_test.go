package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/database"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_Paired(t *testing.T) {
	names, err := fs.Glob(MigrationFiles, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %s", name)
		}
	}
	require.Equal(t, ups, downs)
}

func TestMigrationFiles_ProvisionReadModel(t *testing.T) {
	var all strings.Builder
	names, err := fs.Glob(MigrationFiles, "*.up.sql")
	require.NoError(t, err)
	for _, name := range names {
		data, err := fs.ReadFile(MigrationFiles, name)
		require.NoError(t, err)
		all.Write(data)
	}

	sql := all.String()
	for _, relation := range []string{
		"mv_faturamento",
		"pedidos_itens",
		"vw_representantes",
		"vw_pessoas",
		"vw_itens",
		"rpc_dashboard_comercial",
	} {
		require.Contains(t, sql, relation)
	}
}

func TestVersionBefore(t *testing.T) {
	tests := []struct {
		name    string
		version uint
		want    int
	}{
		{name: "first migration steps back to nil version", version: 1, want: database.NilVersion},
		{name: "later migration steps back one", version: 2, want: 1},
		{name: "zero stays nil", version: 0, want: -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, versionBefore(tc.version))
		})
	}
}

func TestDashboardProcedure_SkipsUnidentifiedRepresentative(t *testing.T) {
	data, err := fs.ReadFile(MigrationFiles, "000002_rpc_dashboard_comercial.up.sql")
	require.NoError(t, err)
	require.Contains(t, string(data), "COUNT(DISTINCT NULLIF(representante_id, '0'))")
}
