package inmemdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/billing"
)

var errInvoiceNumberTaken = errors.New("invoice number already taken")

// billingRepository ignores executors: there are no transactions in memory.
type billingRepository struct {
	db *billingTables
}

var _ billing.Repository = (*billingRepository)(nil)

func NewBillingRepository(db *DB) *billingRepository {
	return &billingRepository{db: db.billing}
}

func (repo *billingRepository) nextNumber(series string, collegeID int) string {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	year := billing.NowFunc().Year()
	key := fmt.Sprintf("%s-%d-%d", series, collegeID, year)
	repo.db.counters[key]++
	return fmt.Sprintf("%s-%06d", key, repo.db.counters[key])
}

func (repo *billingRepository) GenerateInvoiceNumber(_ context.Context, collegeID int, _ ...core.DBExecutor) (string, error) {
	return repo.nextNumber("INV", collegeID), nil
}

func (repo *billingRepository) GeneratePaymentNumber(_ context.Context, collegeID int, _ ...core.DBExecutor) (string, error) {
	return repo.nextNumber("PAY", collegeID), nil
}

func (repo *billingRepository) CreateInvoice(_ context.Context, inv billing.Invoice, _ ...core.DBExecutor) (billing.Invoice, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, i := range repo.db.invoices {
		if i.InvoiceNumber == inv.InvoiceNumber {
			return billing.Invoice{}, errInvoiceNumberTaken
		}
	}
	inv.ID = len(repo.db.invoices) + 1
	repo.db.invoices = append(repo.db.invoices, inv)
	return inv, nil
}

func (repo *billingRepository) CreateInvoiceItem(_ context.Context, item billing.InvoiceItem, _ ...core.DBExecutor) (billing.InvoiceItem, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	item.ID = len(repo.db.items) + 1
	repo.db.items = append(repo.db.items, item)
	return item, nil
}

func (repo *billingRepository) CreatePayment(_ context.Context, pmt billing.Payment, _ ...core.DBExecutor) (billing.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, p := range repo.db.payments {
		if p.PaymentNumber == pmt.PaymentNumber {
			return billing.Payment{}, fmt.Errorf("payment number %s already exists", pmt.PaymentNumber)
		}
	}
	pmt.ID = len(repo.db.payments) + 1
	repo.db.payments = append(repo.db.payments, pmt)
	return pmt, nil
}

func (repo *billingRepository) ListStudentInvoices(_ context.Context, studentID int) ([]billing.Invoice, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	invs := make([]billing.Invoice, 0)
	for _, inv := range repo.db.invoices {
		if inv.StudentID == studentID {
			invs = append(invs, inv)
		}
	}
	return invs, nil
}
