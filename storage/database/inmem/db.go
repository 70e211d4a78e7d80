// Package inmemdb implements the domain repositories in memory, for demos and tests.
// It enforces the same uniqueness rules as the postgres schema.
package inmemdb

import (
	"sync"

	"github.com/trezcool/kulliya/core/billing"
	"github.com/trezcool/kulliya/core/college"
	"github.com/trezcool/kulliya/core/student"
	"github.com/trezcool/kulliya/core/user"
)

type (
	DB struct {
		colleges     *collegeTable
		students     *studentTable
		applications *applicationTable
		billing      *billingTables
		users        *userTable
	}

	collegeTable struct {
		t     map[int]college.College
		mutex sync.RWMutex
	}

	studentTable struct {
		t      []student.Student // insertion order
		lastPK int
		mutex  sync.RWMutex
	}

	applicationTable struct {
		t      map[int]student.Application
		lastPK int
		mutex  sync.RWMutex
	}

	billingTables struct {
		invoices []billing.Invoice
		items    []billing.InvoiceItem
		payments []billing.Payment
		counters map[string]int // {series-college-year: last value}
		mutex    sync.Mutex
	}

	userTable struct {
		t     map[string]*user.User
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		colleges:     &collegeTable{t: make(map[int]college.College)},
		students:     new(studentTable),
		applications: &applicationTable{t: make(map[int]student.Application)},
		billing:      &billingTables{counters: make(map[string]int)},
		users:        &userTable{t: make(map[string]*user.User)},
	}
}

// AddCollege inserts or replaces a college.
func (db *DB) AddCollege(col college.College) {
	db.colleges.mutex.Lock()
	defer db.colleges.mutex.Unlock()
	db.colleges.t[col.ID] = col
}

// AddApplication inserts an application, assigning its ID if unset.
func (db *DB) AddApplication(app student.Application) student.Application {
	db.applications.mutex.Lock()
	defer db.applications.mutex.Unlock()

	if app.ID == 0 {
		db.applications.lastPK++
		app.ID = db.applications.lastPK
	} else if app.ID > db.applications.lastPK {
		db.applications.lastPK = app.ID
	}
	if app.Status == "" {
		app.Status = student.ApplicationPending
	}
	db.applications.t[app.ID] = app
	return app
}

// Reset empties every table.
func (db *DB) Reset() {
	*db = *Open()
}
