package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/billing"
)

type invoiceRow struct {
	ID                int             `db:"id"`
	InvoiceNumber     string          `db:"invoice_number"`
	StudentID         int             `db:"student_id"`
	CollegeID         int             `db:"college_id"`
	InvoiceType       string          `db:"invoice_type"`
	Status            string          `db:"status"`
	IssueDate         time.Time       `db:"issue_date"`
	DueDate           time.Time       `db:"due_date"`
	Subtotal          decimal.Decimal `db:"subtotal"`
	DiscountAmount    decimal.Decimal `db:"discount_amount"`
	ScholarshipAmount decimal.Decimal `db:"scholarship_amount"`
	TaxAmount         decimal.Decimal `db:"tax_amount"`
	TotalAmount       decimal.Decimal `db:"total_amount"`
	PaidAmount        decimal.Decimal `db:"paid_amount"`
	PendingAmount     decimal.Decimal `db:"pending_amount"`
	Notes             string          `db:"notes"`
	CreatedAt         time.Time       `db:"created_at"`
}

func (r invoiceRow) toInvoice() billing.Invoice {
	return billing.Invoice{
		ID:                r.ID,
		InvoiceNumber:     r.InvoiceNumber,
		StudentID:         r.StudentID,
		CollegeID:         r.CollegeID,
		InvoiceType:       r.InvoiceType,
		Status:            r.Status,
		IssueDate:         r.IssueDate,
		DueDate:           r.DueDate,
		Subtotal:          r.Subtotal,
		DiscountAmount:    r.DiscountAmount,
		ScholarshipAmount: r.ScholarshipAmount,
		TaxAmount:         r.TaxAmount,
		TotalAmount:       r.TotalAmount,
		PaidAmount:        r.PaidAmount,
		PendingAmount:     r.PendingAmount,
		Notes:             r.Notes,
		CreatedAt:         r.CreatedAt.UTC(),
	}
}

type billingRepository struct {
	base
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(exec core.DBExecutor) *billingRepository {
	return &billingRepository{base{exec: exec}}
}

func (repo billingRepository) GenerateInvoiceNumber(ctx context.Context, collegeID int, exec ...core.DBExecutor) (string, error) {
	var num string
	if err := repo.getExec(exec).GetContext(ctx, &num, "SELECT generate_invoice_number($1)", collegeID); err != nil {
		return "", errors.Wrap(err, "generating invoice number")
	}
	return num, nil
}

func (repo billingRepository) GeneratePaymentNumber(ctx context.Context, collegeID int, exec ...core.DBExecutor) (string, error) {
	var num string
	if err := repo.getExec(exec).GetContext(ctx, &num, "SELECT generate_payment_number($1)", collegeID); err != nil {
		return "", errors.Wrap(err, "generating payment number")
	}
	return num, nil
}

func (repo billingRepository) CreateInvoice(ctx context.Context, inv billing.Invoice, exec ...core.DBExecutor) (billing.Invoice, error) {
	const q = `INSERT INTO invoices (
		invoice_number, student_id, college_id, invoice_type, status, issue_date, due_date,
		subtotal, discount_amount, scholarship_amount, tax_amount, total_amount, paid_amount, pending_amount,
		notes, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING id`

	err := repo.getExec(exec).QueryRowxContext(ctx, q,
		inv.InvoiceNumber, inv.StudentID, inv.CollegeID, inv.InvoiceType, inv.Status, inv.IssueDate, inv.DueDate,
		inv.Subtotal, inv.DiscountAmount, inv.ScholarshipAmount, inv.TaxAmount, inv.TotalAmount, inv.PaidAmount,
		inv.PendingAmount, inv.Notes, inv.CreatedAt,
	).Scan(&inv.ID)
	if err != nil {
		return billing.Invoice{}, errors.Wrap(err, "inserting invoice")
	}
	return inv, nil
}

func (repo billingRepository) CreateInvoiceItem(ctx context.Context, item billing.InvoiceItem, exec ...core.DBExecutor) (billing.InvoiceItem, error) {
	const q = `INSERT INTO invoice_items (
		invoice_id, item_type, name_en, name_ar, quantity, unit_price, total_amount, reference_id, reference_type
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`

	err := repo.getExec(exec).QueryRowxContext(ctx, q,
		item.InvoiceID, item.ItemType, item.NameEn, item.NameAr, item.Quantity, item.UnitPrice, item.TotalAmount,
		null.NewInt(item.ReferenceID, item.ReferenceID != 0), null.NewString(item.ReferenceType, item.ReferenceType != ""),
	).Scan(&item.ID)
	if err != nil {
		return billing.InvoiceItem{}, errors.Wrap(err, "inserting invoice item")
	}
	return item, nil
}

func (repo billingRepository) CreatePayment(ctx context.Context, pmt billing.Payment, exec ...core.DBExecutor) (billing.Payment, error) {
	const q = `INSERT INTO payments (
		payment_number, invoice_id, student_id, college_id, amount, payment_method, payment_date, status,
		verified_at, notes, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id`

	err := repo.getExec(exec).QueryRowxContext(ctx, q,
		pmt.PaymentNumber, pmt.InvoiceID, pmt.StudentID, pmt.CollegeID, pmt.Amount, pmt.PaymentMethod,
		pmt.PaymentDate, pmt.Status, null.TimeFromPtr(pmt.VerifiedAt), pmt.Notes, pmt.CreatedAt,
	).Scan(&pmt.ID)
	if err != nil {
		return billing.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return pmt, nil
}

func (repo billingRepository) ListStudentInvoices(ctx context.Context, studentID int) ([]billing.Invoice, error) {
	const q = `SELECT id, invoice_number, student_id, college_id, invoice_type, status, issue_date, due_date,
		subtotal, discount_amount, scholarship_amount, tax_amount, total_amount, paid_amount, pending_amount,
		notes, created_at
		FROM invoices WHERE student_id = $1 ORDER BY created_at, id`

	var rows []invoiceRow
	if err := repo.exec.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "listing invoices")
	}
	invs := make([]billing.Invoice, 0, len(rows))
	for _, r := range rows {
		invs = append(invs, r.toInvoice())
	}
	return invs, nil
}
