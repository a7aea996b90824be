package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestValidateSchema(t *testing.T) {
	t.Run("all relations present", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		for _, name := range requiredRelations {
			mock.ExpectQuery(regexp.QuoteMeta(queryRelationExists)).
				WithArgs(name).
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		}

		require.NoError(t, validateSchema(context.Background(), db))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing relation", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(queryRelationExists)).
			WithArgs("mv_faturamento").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err = validateSchema(context.Background(), db)
		require.ErrorContains(t, err, "relation mv_faturamento does not exist")
	})
}
