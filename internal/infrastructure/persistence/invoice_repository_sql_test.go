package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormInvoiceRepository_SetPaidStatus_SQL(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	a, b := uuid.New(), uuid.New()

	t.Run("owner scoped", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		owner := uuid.New()

		mdb.Mock.ExpectQuery(`FROM "invoices" WHERE invoices.id IN \(\$1,\$2\) AND invoices.created_by = \$3`).
			WithArgs(a, b, owner).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(a))
		mdb.Mock.ExpectExec(`UPDATE "invoices" SET "paid"=\$1,"updated_at"=\$2 WHERE id IN \(\$3\)`).
			WithArgs(true, at, a).
			WillReturnResult(sqlmock.NewResult(0, 1))

		updated, err := NewGormInvoiceRepository(mdb.DB).SetPaidStatus(ctx, []uuid.UUID{a, b}, &owner, true, at)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a}, updated)
		mdb.ExpectationsWereMet(t)
	})

	t.Run("privileged is unscoped", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)

		mdb.Mock.ExpectQuery(`FROM "invoices" WHERE invoices.id IN \(\$1,\$2\)`).
			WithArgs(a, b).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(a).AddRow(b))
		mdb.Mock.ExpectExec(`UPDATE "invoices" SET "paid"=\$1,"updated_at"=\$2 WHERE id IN \(\$3,\$4\)`).
			WithArgs(false, at, a, b).
			WillReturnResult(sqlmock.NewResult(0, 2))

		updated, err := NewGormInvoiceRepository(mdb.DB).SetPaidStatus(ctx, []uuid.UUID{a, b}, nil, false, at)
		require.NoError(t, err)
		assert.Len(t, updated, 2)
		mdb.ExpectationsWereMet(t)
	})

	t.Run("nothing matched skips the update", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)

		mdb.Mock.ExpectQuery(`FROM "invoices" WHERE invoices.id IN \(\$1\)`).
			WithArgs(a).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		updated, err := NewGormInvoiceRepository(mdb.DB).SetPaidStatus(ctx, []uuid.UUID{a}, nil, true, at)
		require.NoError(t, err)
		assert.Empty(t, updated)
		mdb.ExpectationsWereMet(t)
	})
}

func TestGormCustomerRepository_Delete_SQL(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	id := uuid.New()

	mdb.Mock.ExpectExec(`DELETE FROM "customers" WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewGormCustomerRepository(mdb.DB).Delete(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	mdb.ExpectationsWereMet(t)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%abc%", likePattern("abc"))
	assert.Equal(t, `%50\%\_off\\%`, likePattern(`50%_off\`))
}
