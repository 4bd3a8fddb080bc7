package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/bookpasal/bookpasal-backend/internal/esewa"
	"github.com/bookpasal/bookpasal-backend/internal/metrics"
	"github.com/bookpasal/bookpasal-backend/internal/models"
	repo "github.com/bookpasal/bookpasal-backend/internal/repository"
	"github.com/bookpasal/bookpasal-backend/internal/worker"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrBookNotFound      = errors.New("book not found")
	ErrNotAuthenticated  = errors.New("user not authenticated")
	ErrSignatureMismatch = errors.New("invalid payment signature")
	ErrUnknownStatus     = errors.New("unknown payment status")
)

// Canonical field orders for the two signing directions. These are part
// of the gateway contract and must match it byte for byte.
const (
	initiationFieldNames = "total_amount,transaction_uuid,product_code"
	callbackFieldNames   = "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names"
)

// Initiation is everything the client needs to redirect the shopper to
// the gateway. Nothing is persisted at this point; the callback is
// self-describing and the gateway is the system of record until then.
type Initiation struct {
	TransactionUUID  string      `json:"transaction_uuid"`
	TotalAmount      string      `json:"total_amount"`
	ProductCode      string      `json:"product_code"`
	SignedFieldNames string      `json:"signed_field_names"`
	Signature        string      `json:"signature"`
	Book             models.Book `json:"book"`
}

// CallbackResult is the terminal outcome of one callback delivery.
type CallbackResult struct {
	Status  models.PaymentStatus `json:"status"`
	Message string               `json:"message"`
	Order   *models.Order        `json:"order,omitempty"`
}

type PaymentService struct {
	books  repo.Books
	orders repo.Orders
	log    repo.AuditLogs
	signer *esewa.Signer
	wp     *worker.Pool
}

func NewPaymentService(b repo.Books, o repo.Orders, l repo.AuditLogs, signer *esewa.Signer, wp *worker.Pool) *PaymentService {
	return &PaymentService{books: b, orders: o, log: l, signer: signer, wp: wp}
}

// Initiate builds a signed purchase payload for the given book: a fresh
// transaction uuid and the HMAC over the initiation field order.
func (s *PaymentService) Initiate(ctx context.Context, bookID string) (Initiation, error) {
	if s.signer == nil {
		return Initiation{}, esewa.ErrSecretMissing
	}

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Initiation{}, ErrBookNotFound
		}
		return Initiation{}, err
	}

	txnUUID := uuid.NewString()
	amount := strconv.FormatInt(book.Price, 10)

	sig := s.signer.Sign([]esewa.Field{
		{Name: "total_amount", Value: amount},
		{Name: "transaction_uuid", Value: txnUUID},
		{Name: "product_code", Value: esewa.ProductCode},
	})

	s.audit(txnUUID, "initiated", "purchase initiated for book "+book.ID)
	return Initiation{
		TransactionUUID:  txnUUID,
		TotalAmount:      amount,
		ProductCode:      esewa.ProductCode,
		SignedFieldNames: initiationFieldNames,
		Signature:        sig,
		Book:             book,
	}, nil
}

// HandleCallback decodes the gateway's return blob and drives the
// status branch. userID is the session identity resolved by the
// middleware; it may be empty, and only the COMPLETE branch cares.
func (s *PaymentService) HandleCallback(ctx context.Context, userID, bookID, raw string) (CallbackResult, error) {
	payload, err := esewa.DecodeCallback(raw)
	if err != nil {
		metrics.PaymentRejections.WithLabelValues("invalid_payload").Inc()
		return CallbackResult{}, err
	}

	status := models.ParsePaymentStatus(payload.Status)
	metrics.PaymentsTotal.WithLabelValues(string(status)).Inc()

	switch status {
	case models.PaymentPending:
		s.audit(payload.TransactionUUID, "pending", "gateway reported pending")
		return CallbackResult{Status: status, Message: "payment pending"}, nil

	case models.PaymentCanceled:
		s.audit(payload.TransactionUUID, "canceled", "gateway reported canceled")
		return CallbackResult{Status: status, Message: "payment canceled"}, nil

	case models.PaymentFullRefund:
		// TODO: transition the existing order to FULL_REFUND once the
		// refund reconciliation contract with eSewa is settled.
		s.audit(payload.TransactionUUID, "refunded", "refund acknowledged, order untouched")
		return CallbackResult{Status: status, Message: "payment refunded"}, nil

	case models.PaymentComplete:
		return s.completeOrder(ctx, userID, bookID, payload)

	default:
		metrics.PaymentRejections.WithLabelValues("unknown_status").Inc()
		return CallbackResult{}, fmt.Errorf("%w: %q", ErrUnknownStatus, payload.Status)
	}
}

// completeOrder is the only mutating branch. Gates run in order and
// fail closed: session, book, signature, then the idempotent insert.
func (s *PaymentService) completeOrder(ctx context.Context, userID, bookID string, p esewa.CallbackPayload) (CallbackResult, error) {
	if s.signer == nil {
		return CallbackResult{}, esewa.ErrSecretMissing
	}
	if userID == "" {
		metrics.PaymentRejections.WithLabelValues("unauthorized").Inc()
		return CallbackResult{}, ErrNotAuthenticated
	}

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			metrics.PaymentRejections.WithLabelValues("not_found").Inc()
			return CallbackResult{}, ErrBookNotFound
		}
		return CallbackResult{}, err
	}

	ok := s.signer.Verify([]esewa.Field{
		{Name: "transaction_code", Value: p.TransactionCode},
		{Name: "status", Value: p.Status},
		{Name: "total_amount", Value: p.TotalAmount},
		{Name: "transaction_uuid", Value: p.TransactionUUID},
		{Name: "product_code", Value: p.ProductCode},
		{Name: "signed_field_names", Value: p.SignedFieldNames},
	}, p.Signature)
	if !ok {
		metrics.PaymentRejections.WithLabelValues("invalid_signature").Inc()
		slog.Warn("payment signature mismatch", "transaction_uuid", p.TransactionUUID, "book_id", bookID)
		s.audit(p.TransactionUUID, "rejected", "signature mismatch")
		return CallbackResult{}, ErrSignatureMismatch
	}

	// Price comes from the book row we trust, never from the payload's
	// total_amount. The unique transaction_id constraint makes retried
	// deliveries land on the same row.
	order, err := s.orders.Create(ctx, models.Order{
		UserID:        userID,
		BookID:        book.ID,
		Quantity:      1,
		Price:         book.Price,
		TransactionID: p.TransactionUUID,
		PaymentStatus: models.PaymentComplete,
	})
	if err != nil {
		return CallbackResult{}, err
	}

	metrics.OrdersCreated.Inc()
	s.audit(p.TransactionUUID, "completed", "order "+order.ID+" recorded")
	return CallbackResult{Status: models.PaymentComplete, Message: "payment verified", Order: &order}, nil
}

// ListOrders returns the authenticated user's purchase history.
func (s *PaymentService) ListOrders(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID, limit, offset)
}

// audit writes payment events off the request path.
func (s *PaymentService) audit(txnID, action, detail string) {
	if s.wp == nil || s.log == nil {
		return
	}
	id := txnID
	s.wp.Submit(func() {
		_ = s.log.Create(context.Background(), models.AuditLog{
			EntityType: "payment",
			EntityID:   &id,
			Action:     action,
			Details:    map[string]any{"message": detail},
		})
	})
}
