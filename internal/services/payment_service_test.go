package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/bookpasal/bookpasal-backend/internal/esewa"
	"github.com/bookpasal/bookpasal-backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "s3cret"
	testBookID = "b1"
	testUserID = "u1"
	testTxn    = "11111111-2222-3333-4444-555555555555"
)

func testBook() models.Book {
	return models.Book{ID: testBookID, Title: "Palpasa Cafe", Description: "a novel", Price: 500}
}

func newSigner(t *testing.T) *esewa.Signer {
	t.Helper()
	s, err := esewa.NewSigner(testSecret)
	require.NoError(t, err)
	return s
}

// callbackBlob builds the base64 JSON blob the gateway would redirect
// with, signed over the callback field order unless overridden.
func callbackBlob(t *testing.T, signer *esewa.Signer, overrides map[string]any) string {
	t.Helper()
	m := map[string]any{
		"status":             "COMPLETE",
		"transaction_code":   "000ABC",
		"total_amount":       "500",
		"transaction_uuid":   testTxn,
		"product_code":       esewa.ProductCode,
		"signed_field_names": "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names",
	}
	for k, v := range overrides {
		m[k] = v
	}
	if _, ok := m["signature"]; !ok {
		m["signature"] = signer.Sign([]esewa.Field{
			{Name: "transaction_code", Value: m["transaction_code"].(string)},
			{Name: "status", Value: m["status"].(string)},
			{Name: "total_amount", Value: m["total_amount"].(string)},
			{Name: "transaction_uuid", Value: m["transaction_uuid"].(string)},
			{Name: "product_code", Value: m["product_code"].(string)},
			{Name: "signed_field_names", Value: m["signed_field_names"].(string)},
		})
	}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(b)
}

func TestPaymentService_Initiate(t *testing.T) {
	ctx := context.Background()
	signer := newSigner(t)

	t.Run("book not found", func(t *testing.T) {
		books := new(BooksMock)
		books.On("GetByID", ctx, "missing").Return(models.Book{}, pgx.ErrNoRows)
		svc := NewPaymentService(books, new(OrdersMock), nil, signer, nil)

		_, err := svc.Initiate(ctx, "missing")
		require.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("missing signer fails before any lookup", func(t *testing.T) {
		svc := NewPaymentService(new(BooksMock), new(OrdersMock), nil, nil, nil)
		_, err := svc.Initiate(ctx, testBookID)
		require.ErrorIs(t, err, esewa.ErrSecretMissing)
	})

	t.Run("success", func(t *testing.T) {
		books := new(BooksMock)
		books.On("GetByID", ctx, testBookID).Return(testBook(), nil)
		svc := NewPaymentService(books, new(OrdersMock), nil, signer, nil)

		init, err := svc.Initiate(ctx, testBookID)
		require.NoError(t, err)
		require.Equal(t, "500", init.TotalAmount)
		require.Equal(t, esewa.ProductCode, init.ProductCode)
		require.Equal(t, "total_amount,transaction_uuid,product_code", init.SignedFieldNames)
		require.NotEmpty(t, init.TransactionUUID)
		require.Equal(t, testBook().Title, init.Book.Title)

		// the signature binds amount, uuid and product code in the
		// initiation order
		require.True(t, signer.Verify([]esewa.Field{
			{Name: "total_amount", Value: init.TotalAmount},
			{Name: "transaction_uuid", Value: init.TransactionUUID},
			{Name: "product_code", Value: init.ProductCode},
		}, init.Signature))
	})

	t.Run("fresh uuid per attempt", func(t *testing.T) {
		books := new(BooksMock)
		books.On("GetByID", ctx, testBookID).Return(testBook(), nil)
		svc := NewPaymentService(books, new(OrdersMock), nil, signer, nil)

		a, err := svc.Initiate(ctx, testBookID)
		require.NoError(t, err)
		b, err := svc.Initiate(ctx, testBookID)
		require.NoError(t, err)
		require.NotEqual(t, a.TransactionUUID, b.TransactionUUID)
	})
}

func TestPaymentService_HandleCallback_Complete(t *testing.T) {
	ctx := context.Background()
	signer := newSigner(t)

	t.Run("verified callback creates the order", func(t *testing.T) {
		books := new(BooksMock)
		books.On("GetByID", ctx, testBookID).Return(testBook(), nil)
		orders := new(OrdersMock)
		created := models.Order{
			ID: "o1", UserID: testUserID, BookID: testBookID, Quantity: 1,
			Price: 500, TransactionID: testTxn, PaymentStatus: models.PaymentComplete,
		}
		orders.On("Create", ctx, mock.MatchedBy(func(o models.Order) bool {
			return o.UserID == testUserID && o.BookID == testBookID &&
				o.Quantity == 1 && o.Price == 500 &&
				o.TransactionID == testTxn && o.PaymentStatus == models.PaymentComplete
		})).Return(created, nil)
		svc := NewPaymentService(books, orders, nil, signer, nil)

		res, err := svc.HandleCallback(ctx, testUserID, testBookID, callbackBlob(t, signer, nil))
		require.NoError(t, err)
		require.Equal(t, models.PaymentComplete, res.Status)
		require.NotNil(t, res.Order)
		require.Equal(t, int64(500), res.Order.Price)
		orders.AssertExpectations(t)
	})

	t.Run("order price comes from the book, not the payload", func(t *testing.T) {
		books := new(BooksMock)
		books.On("GetByID", ctx, testBookID).Return(testBook(), nil)
		orders := new(OrdersMock)
		orders.On("Create", ctx, mock.MatchedBy(func(o models.Order) bool {
			return o.Price == 500 // payload claims 1
		})).Return(models.Order{ID: "o1", Price: 500, PaymentStatus: models.PaymentComplete}, nil)
		svc := NewPaymentService(books, orders, nil, signer, nil)

		// correctly signed payload claiming a tampered-down amount
		blob := callbackBlob(t, signer, map[string]any{"total_amount": "1"})
		res, err := svc.HandleCallback(ctx, testUserID, testBookID, blob)
		require.NoError(t, err)
		require.Equal(t, int64(500), res.Order.Price)
		orders.AssertExpectations(t)
	})

	t.Run("tampered signature is rejected", func(t *testing.T) {
		books := new(BooksMock)
		books.On("GetByID", ctx, testBookID).Return(testBook(), nil)
		orders := new(OrdersMock)
		svc := NewPaymentService(books, orders, nil, signer, nil)

		good := signer.Sign([]esewa.Field{
			{Name: "transaction_code", Value: "000ABC"},
			{Name: "status", Value: "COMPLETE"},
			{Name: "total_amount", Value: "500"},
			{Name: "transaction_uuid", Value: testTxn},
			{Name: "product_code", Value: esewa.ProductCode},
			{Name: "signed_field_names", Value: "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names"},
		})
		mutated := []byte(good)
		if mutated[0] == 'A' { mutated[0] = 'B' } else { mutated[0] = 'A' }

		blob := callbackBlob(t, signer, map[string]any{"signature": string(mutated)})
		_, err := svc.HandleCallback(ctx, testUserID, testBookID, blob)
		require.ErrorIs(t, err, ErrSignatureMismatch)
		orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("altered amount invalidates the original signature", func(t *testing.T) {
		books := new(BooksMock)
		books.On("GetByID", ctx, testBookID).Return(testBook(), nil)
		orders := new(OrdersMock)
		svc := NewPaymentService(books, orders, nil, signer, nil)

		// signature computed over total_amount=500, payload claims 9500
		good := signer.Sign([]esewa.Field{
			{Name: "transaction_code", Value: "000ABC"},
			{Name: "status", Value: "COMPLETE"},
			{Name: "total_amount", Value: "500"},
			{Name: "transaction_uuid", Value: testTxn},
			{Name: "product_code", Value: esewa.ProductCode},
			{Name: "signed_field_names", Value: "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names"},
		})
		blob := callbackBlob(t, signer, map[string]any{"total_amount": "9500", "signature": good})
		_, err := svc.HandleCallback(ctx, testUserID, testBookID, blob)
		require.ErrorIs(t, err, ErrSignatureMismatch)
		orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("no session means no order even with a valid signature", func(t *testing.T) {
		books := new(BooksMock)
		orders := new(OrdersMock)
		svc := NewPaymentService(books, orders, nil, signer, nil)

		_, err := svc.HandleCallback(ctx, "", testBookID, callbackBlob(t, signer, nil))
		require.ErrorIs(t, err, ErrNotAuthenticated)
		books.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown book", func(t *testing.T) {
		books := new(BooksMock)
		books.On("GetByID", ctx, "missing").Return(models.Book{}, pgx.ErrNoRows)
		orders := new(OrdersMock)
		svc := NewPaymentService(books, orders, nil, signer, nil)

		_, err := svc.HandleCallback(ctx, testUserID, "missing", callbackBlob(t, signer, nil))
		require.ErrorIs(t, err, ErrBookNotFound)
		orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate delivery resolves to the same order", func(t *testing.T) {
		books := new(BooksMock)
		books.On("GetByID", ctx, testBookID).Return(testBook(), nil)
		orders := new(OrdersMock)
		existing := models.Order{
			ID: "o1", UserID: testUserID, BookID: testBookID, Quantity: 1,
			Price: 500, TransactionID: testTxn, PaymentStatus: models.PaymentComplete,
		}
		// the conflict-tolerant insert hands back the same row on retry
		orders.On("Create", ctx, mock.Anything).Return(existing, nil).Twice()
		svc := NewPaymentService(books, orders, nil, signer, nil)

		blob := callbackBlob(t, signer, nil)
		first, err := svc.HandleCallback(ctx, testUserID, testBookID, blob)
		require.NoError(t, err)
		second, err := svc.HandleCallback(ctx, testUserID, testBookID, blob)
		require.NoError(t, err)
		require.Equal(t, first.Order.ID, second.Order.ID)
		require.Equal(t, first.Order.TransactionID, second.Order.TransactionID)
		orders.AssertExpectations(t)
	})
}

func TestPaymentService_HandleCallback_NonMutatingStatuses(t *testing.T) {
	ctx := context.Background()
	signer := newSigner(t)

	var tests = []struct {
		name    string
		status  string
		want    models.PaymentStatus
	}{
		{name: "pending is acknowledged", status: "PENDING", want: models.PaymentPending},
		{name: "canceled is acknowledged", status: "CANCELED", want: models.PaymentCanceled},
		{name: "refund is acknowledged", status: "FULL_REFUND", want: models.PaymentFullRefund},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			books := new(BooksMock)
			orders := new(OrdersMock)
			svc := NewPaymentService(books, orders, nil, signer, nil)

			// no session on purpose: only COMPLETE requires one
			blob := callbackBlob(t, signer, map[string]any{"status": tt.status})
			res, err := svc.HandleCallback(ctx, "", testBookID, blob)
			require.NoError(t, err)
			require.Equal(t, tt.want, res.Status)
			require.Nil(t, res.Order)
			books.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
			orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestPaymentService_HandleCallback_Rejections(t *testing.T) {
	ctx := context.Background()
	signer := newSigner(t)

	t.Run("unknown status never succeeds", func(t *testing.T) {
		orders := new(OrdersMock)
		svc := NewPaymentService(new(BooksMock), orders, nil, signer, nil)

		blob := callbackBlob(t, signer, map[string]any{"status": "SETTLED"})
		_, err := svc.HandleCallback(ctx, testUserID, testBookID, blob)
		require.ErrorIs(t, err, ErrUnknownStatus)
		orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing field stops before the status branch", func(t *testing.T) {
		books := new(BooksMock)
		orders := new(OrdersMock)
		svc := NewPaymentService(books, orders, nil, signer, nil)

		b, err := json.Marshal(map[string]any{
			"status":           "COMPLETE",
			"transaction_code": "000ABC",
			"total_amount":     "500",
			"transaction_uuid": testTxn,
			"product_code":     esewa.ProductCode,
			// signed_field_names absent
			"signature": "dGVzdA==",
		})
		require.NoError(t, err)

		_, err = svc.HandleCallback(ctx, testUserID, testBookID, base64.StdEncoding.EncodeToString(b))
		require.ErrorIs(t, err, esewa.ErrPayloadInvalid)
		books.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("undecodable blob", func(t *testing.T) {
		svc := NewPaymentService(new(BooksMock), new(OrdersMock), nil, signer, nil)
		_, err := svc.HandleCallback(ctx, testUserID, testBookID, "!!not-base64!!")
		require.ErrorIs(t, err, esewa.ErrPayloadInvalid)
	})
}
