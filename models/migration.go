package models

import (
	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Customer{}, &CustomerPayment{},
		&PaidInvoice{}, &Product{},
		&SalesInvoice{}, &SalesInvoiceDetail{}, &State{},
		&Tax{}, &TaxGroup{},
	)
}
