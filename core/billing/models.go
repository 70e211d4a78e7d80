package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceTypeAdmissionFee = "admission_fee"
	InvoiceStatusPaid       = "paid"

	ItemTypeRegistrationFee  = "registration_fee"
	ReferenceTypeApplication = "application"

	PaymentStatusVerified = "verified"
	DefaultPaymentMethod  = "cash"
)

type Invoice struct {
	ID                int             `json:"id"`
	InvoiceNumber     string          `json:"invoice_number"`
	StudentID         int             `json:"student_id"`
	CollegeID         int             `json:"college_id"`
	InvoiceType       string          `json:"invoice_type"`
	Status            string          `json:"status"`
	IssueDate         time.Time       `json:"issue_date"`
	DueDate           time.Time       `json:"due_date"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	ScholarshipAmount decimal.Decimal `json:"scholarship_amount"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	PendingAmount     decimal.Decimal `json:"pending_amount"`
	Notes             string          `json:"notes"`
	CreatedAt         time.Time       `json:"created_at"` // UTC
}

type InvoiceItem struct {
	ID            int             `json:"id"`
	InvoiceID     int             `json:"invoice_id"`
	ItemType      string          `json:"item_type"`
	NameEn        string          `json:"name_en"`
	NameAr        string          `json:"name_ar"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ReferenceID   int             `json:"reference_id"`
	ReferenceType string          `json:"reference_type"`
}

type Payment struct {
	ID            int             `json:"id"`
	PaymentNumber string          `json:"payment_number"`
	InvoiceID     int             `json:"invoice_id"`
	StudentID     int             `json:"student_id"`
	CollegeID     int             `json:"college_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaymentDate   time.Time       `json:"payment_date"`
	Status        string          `json:"status"`
	VerifiedAt    *time.Time      `json:"verified_at"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"` // UTC
}
