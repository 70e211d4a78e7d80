package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/student"
)

// Recording steps
const (
	StepInvoiceNumber = "invoice_number"
	StepPaymentNumber = "payment_number"
	StepInvoice       = "invoice"
	StepInvoiceItem   = "invoice_item"
	StepPayment       = "payment"
	StepTransaction   = "transaction"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNoRegistrationFee = errors.New("application has no registration fee amount")
)

// Repository persists billing records. Every call runs on the given executor, if any.
type Repository interface {
	// GenerateInvoiceNumber and GeneratePaymentNumber hand out the next number of a college's series.
	GenerateInvoiceNumber(ctx context.Context, collegeID int, exec ...core.DBExecutor) (string, error)
	GeneratePaymentNumber(ctx context.Context, collegeID int, exec ...core.DBExecutor) (string, error)

	CreateInvoice(ctx context.Context, inv Invoice, exec ...core.DBExecutor) (Invoice, error)
	CreateInvoiceItem(ctx context.Context, item InvoiceItem, exec ...core.DBExecutor) (InvoiceItem, error)
	CreatePayment(ctx context.Context, pmt Payment, exec ...core.DBExecutor) (Payment, error)

	ListStudentInvoices(ctx context.Context, studentID int) ([]Invoice, error)
}

// RecordError tells which step of the billing trail failed.
type RecordError struct {
	Step string
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("recording %s: %v", e.Step, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
func (e *RecordError) Cause() error  { return e.Err }

// RetroactiveRecorder creates the invoice, invoice item and payment of a registration fee
// that was collected while applying. With a DB, the records are written in a single transaction.
type RetroactiveRecorder struct {
	db   core.DB
	repo Repository
}

var _ student.BillingRecorder = (*RetroactiveRecorder)(nil)

// NewRetroactiveRecorder returns a recorder writing through repo. db may be nil for stores without transactions.
func NewRetroactiveRecorder(db core.DB, repo Repository) *RetroactiveRecorder {
	return &RetroactiveRecorder{db: db, repo: repo}
}

func (r *RetroactiveRecorder) RecordRegistrationFee(ctx context.Context, st student.Student, app student.Application) error {
	if !app.RegistrationFeeAmount.Valid {
		return &RecordError{Step: StepInvoice, Err: ErrNoRegistrationFee}
	}
	if r.db == nil {
		return r.record(ctx, st, app)
	}

	err := core.InTx(ctx, r.db, func(tx core.DBTransactor) error {
		return r.record(ctx, st, app, tx)
	})
	var recErr *RecordError
	if err != nil && !errors.As(err, &recErr) {
		return &RecordError{Step: StepTransaction, Err: err}
	}
	return err
}

func (r *RetroactiveRecorder) record(ctx context.Context, st student.Student, app student.Application, exec ...core.DBExecutor) error {
	invoiceNumber, err := r.repo.GenerateInvoiceNumber(ctx, st.CollegeID, exec...)
	if err != nil {
		return &RecordError{Step: StepInvoiceNumber, Err: err}
	}
	paymentNumber, err := r.repo.GeneratePaymentNumber(ctx, st.CollegeID, exec...)
	if err != nil {
		return &RecordError{Step: StepPaymentNumber, Err: err}
	}

	now := NowFunc().UTC()
	fee := app.RegistrationFeeAmount.Decimal
	paidAt := now
	if app.RegistrationFeePaidAt != nil {
		paidAt = app.RegistrationFeePaidAt.UTC()
	}
	note := fmt.Sprintf("Registration fee paid with application %s", app.Reference())

	inv, err := r.repo.CreateInvoice(ctx, Invoice{
		InvoiceNumber:     invoiceNumber,
		StudentID:         st.ID,
		CollegeID:         st.CollegeID,
		InvoiceType:       InvoiceTypeAdmissionFee,
		Status:            InvoiceStatusPaid,
		IssueDate:         paidAt,
		DueDate:           paidAt,
		Subtotal:          fee,
		DiscountAmount:    decimal.Zero,
		ScholarshipAmount: decimal.Zero,
		TaxAmount:         decimal.Zero,
		TotalAmount:       fee,
		PaidAmount:        fee,
		PendingAmount:     decimal.Zero,
		Notes:             note,
		CreatedAt:         now,
	}, exec...)
	if err != nil {
		return &RecordError{Step: StepInvoice, Err: err}
	}

	if _, err = r.repo.CreateInvoiceItem(ctx, InvoiceItem{
		InvoiceID:     inv.ID,
		ItemType:      ItemTypeRegistrationFee,
		NameEn:        "Registration Fee",
		NameAr:        "رسوم التسجيل",
		Quantity:      1,
		UnitPrice:     fee,
		TotalAmount:   fee,
		ReferenceID:   app.ID,
		ReferenceType: ReferenceTypeApplication,
	}, exec...); err != nil {
		return &RecordError{Step: StepInvoiceItem, Err: err}
	}

	method := app.RegistrationFeeMethod
	if method == "" {
		method = DefaultPaymentMethod
	}
	if _, err = r.repo.CreatePayment(ctx, Payment{
		PaymentNumber: paymentNumber,
		InvoiceID:     inv.ID,
		StudentID:     st.ID,
		CollegeID:     st.CollegeID,
		Amount:        fee,
		PaymentMethod: method,
		PaymentDate:   paidAt,
		Status:        PaymentStatusVerified,
		VerifiedAt:    &paidAt,
		Notes:         note,
		CreatedAt:     now,
	}, exec...); err != nil {
		return &RecordError{Step: StepPayment, Err: err}
	}
	return nil
}
