package order

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/payment"
)

// Ids that are not uuids are rejected before any query runs, so fixtures
// carry real uuid strings.
const (
	testCustID  = "9f1c2b3a-4d5e-4678-9a0b-c1d2e3f4a5b6"
	testItemA   = "1a2b3c4d-5e6f-4a8b-9c0d-e1f2a3b4c5d6"
	testItemB   = "2b3c4d5e-6f7a-4b9c-8d1e-f2a3b4c5d6e7"
	testPayID   = "3c4d5e6f-7a8b-4cad-9e2f-a3b4c5d6e7f8"
	testOrderID = "4d5e6f7a-8b9c-4dbe-8f3a-b4c5d6e7f8a9"
	testGhostID = "5e6f7a8b-9c0d-4ecf-9a4b-c5d6e7f8a9b0"
)

func TestRepositoryCreate_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	ctx := context.Background()

	lockQuery := regexp.QuoteMeta(`SELECT name, price, stock FROM items`)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).
		WithArgs(testItemA).
		WillReturnRows(pgxmock.NewRows([]string{"name", "price", "stock"}).
			AddRow("Keyboard", decimal.NewFromInt(10), 5))
	mock.ExpectQuery(lockQuery).
		WithArgs(testItemB).
		WillReturnRows(pgxmock.NewRows([]string{"name", "price", "stock"}).
			AddRow("Mouse", decimal.NewFromInt(5), 1))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET stock = stock - $2`)).
		WithArgs(testItemA, 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET stock = stock - $2`)).
		WithArgs(testItemB, 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO payments`)).
		WithArgs(pgxmock.AnyArg(), testCustID, pgxmock.AnyArg(), "LKR", payment.StatusPending).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(pgxmock.AnyArg(), testCustID, pgxmock.AnyArg(), StatusNew, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WithArgs(pgxmock.AnyArg(), testItemA, 2, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WithArgs(pgxmock.AnyArg(), testItemB, 1, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	o, p, err := repo.Create(ctx, testCustID, "LKR", []RequestLine{
		{ItemID: testItemA, Quantity: 2},
		{ItemID: testItemB, Quantity: 1},
	})
	require.NoError(t, err)

	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(25)), "total is 2*10 + 1*5")
	assert.Equal(t, StatusNew, o.Status)
	assert.Equal(t, payment.StatusPending, p.Status)
	assert.Equal(t, p.ID, o.PaymentID)
	assert.True(t, p.Amount.Equal(o.TotalAmount))
	assert.Len(t, o.Lines, 2)
	assert.True(t, o.Lines[0].UnitPrice.Equal(decimal.NewFromInt(10)))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_InsufficientStock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	lockQuery := regexp.QuoteMeta(`SELECT name, price, stock FROM items`)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).
		WithArgs(testItemA).
		WillReturnRows(pgxmock.NewRows([]string{"name", "price", "stock"}).
			AddRow("Keyboard", decimal.NewFromInt(10), 1))
	mock.ExpectQuery(lockQuery).
		WithArgs(testItemB).
		WillReturnRows(pgxmock.NewRows([]string{"name", "price", "stock"}).
			AddRow("Mouse", decimal.NewFromInt(5), 0))
	mock.ExpectRollback()

	_, _, err = repo.Create(context.Background(), testCustID, "LKR", []RequestLine{
		{ItemID: testItemA, Quantity: 3},
		{ItemID: testItemB, Quantity: 1},
	})

	var shortErr *InsufficientStockError
	require.ErrorAs(t, err, &shortErr)
	require.Len(t, shortErr.Lines, 2, "every shortage is reported, not just the first")
	assert.Equal(t, ShortLine{ItemID: testItemA, Name: "Keyboard", Requested: 3, Available: 1}, shortErr.Lines[0])
	assert.Equal(t, ShortLine{ItemID: testItemB, Name: "Mouse", Requested: 1, Available: 0}, shortErr.Lines[1])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_UnknownItem(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, price, stock FROM items`)).
		WithArgs(testGhostID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, _, err = repo.Create(context.Background(), testCustID, "LKR", []RequestLine{
		{ItemID: testGhostID, Quantity: 1},
	})
	require.ErrorIs(t, err, ErrItemNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentNotification_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	paid := decimal.RequireFromString("25.00")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT customer_id, status FROM payments`)).
		WithArgs(testPayID).
		WillReturnRows(pgxmock.NewRows([]string{"customer_id", "status"}).
			AddRow(testCustID, payment.StatusPending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = $2, amount = $3`)).
		WithArgs(testPayID, payment.StatusCompleted, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders SET status = $2`)).
		WithArgs(testPayID, StatusProcessing).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(testOrderID))
	mock.ExpectCommit()

	res, err := repo.ApplyPaymentNotification(context.Background(), testPayID, true, paid)
	require.NoError(t, err)

	assert.True(t, res.Applied)
	assert.Equal(t, testOrderID, res.OrderID)
	assert.Equal(t, testCustID, res.CustomerID)
	assert.Equal(t, payment.StatusCompleted, res.PaymentStatus)
	assert.Equal(t, StatusProcessing, res.OrderStatus)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentNotification_Failure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT customer_id, status FROM payments`)).
		WithArgs(testPayID).
		WillReturnRows(pgxmock.NewRows([]string{"customer_id", "status"}).
			AddRow(testCustID, payment.StatusPending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = $2, updated_at`)).
		WithArgs(testPayID, payment.StatusFailed).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders SET status = $2`)).
		WithArgs(testPayID, StatusFailed).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(testOrderID))
	mock.ExpectCommit()

	res, err := repo.ApplyPaymentNotification(context.Background(), testPayID, false, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, payment.StatusFailed, res.PaymentStatus)
	assert.Equal(t, StatusFailed, res.OrderStatus)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentNotification_ReplaySameOutcome(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT customer_id, status FROM payments`)).
		WithArgs(testPayID).
		WillReturnRows(pgxmock.NewRows([]string{"customer_id", "status"}).
			AddRow(testCustID, payment.StatusCompleted))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, status FROM orders WHERE payment_id = $1`)).
		WithArgs(testPayID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "status"}).
			AddRow(testOrderID, StatusProcessing))
	mock.ExpectRollback()

	res, err := repo.ApplyPaymentNotification(context.Background(), testPayID, true, decimal.RequireFromString("25.00"))
	require.NoError(t, err)
	assert.False(t, res.Applied, "replays must not mutate anything")
	assert.Equal(t, payment.StatusCompleted, res.PaymentStatus)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentNotification_ConflictingOutcome(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT customer_id, status FROM payments`)).
		WithArgs(testPayID).
		WillReturnRows(pgxmock.NewRows([]string{"customer_id", "status"}).
			AddRow(testCustID, payment.StatusCompleted))
	mock.ExpectRollback()

	_, err = repo.ApplyPaymentNotification(context.Background(), testPayID, false, decimal.Zero)
	require.ErrorIs(t, err, ErrAlreadySettled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentNotification_UnknownPayment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT customer_id, status FROM payments`)).
		WithArgs(testGhostID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err = repo.ApplyPaymentNotification(context.Background(), testGhostID, true, decimal.Zero)
	require.ErrorIs(t, err, payment.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, payment_id FROM orders`)).
		WithArgs(testOrderID).
		WillReturnRows(pgxmock.NewRows([]string{"status", "payment_id"}).
			AddRow(StatusNew, testPayID))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $2`)).
		WithArgs(testOrderID, StatusCancelled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = $2`)).
		WithArgs(testPayID, payment.StatusCancelled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Cancel(context.Background(), testOrderID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_ClosedOrder(t *testing.T) {
	for _, status := range []Status{StatusDone, StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			repo := NewRepository(mock)

			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, payment_id FROM orders`)).
				WithArgs(testOrderID).
				WillReturnRows(pgxmock.NewRows([]string{"status", "payment_id"}).
					AddRow(status, testPayID))
			mock.ExpectRollback()

			err = repo.Cancel(context.Background(), testOrderID)
			require.ErrorIs(t, err, ErrInvalidTransition)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMarkDone_DoesNotTouchPayment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, payment_id FROM orders`)).
		WithArgs(testOrderID).
		WillReturnRows(pgxmock.NewRows([]string{"status", "payment_id"}).
			AddRow(StatusProcessing, testPayID))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $2`)).
		WithArgs(testOrderID, StatusDone).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.MarkDone(context.Background(), testOrderID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1`)).
		WithArgs(testGhostID).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(context.Background(), testGhostID)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_MalformedItemID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	_, _, err = repo.Create(context.Background(), testCustID, "LKR", []RequestLine{
		{ItemID: "not-a-uuid", Quantity: 1},
	})
	require.ErrorIs(t, err, ErrItemNotFound)
	require.NoError(t, mock.ExpectationsWereMet(), "malformed ids never reach the database")
}

func TestGetByID_MalformedID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet(), "malformed ids never reach the database")
}
