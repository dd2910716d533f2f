package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Employee is the single persisted salary record. Email is the business
// key: public submissions upsert against it.
type Employee struct {
	ID                    int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                  string              `gorm:"not null" json:"name"`
	Email                 string              `gorm:"uniqueIndex;not null" json:"email"`
	Role                  string              `gorm:"not null" json:"role"`
	SalaryInLocalCurrency decimal.Decimal     `gorm:"type:numeric(10,2);not null;check:salary_in_local_currency >= 0" json:"salary_in_local_currency"`
	SalaryInEuros         decimal.NullDecimal `gorm:"type:numeric(10,2);check:salary_in_euros >= 0" json:"salary_in_euros"`
	Commission            decimal.Decimal     `gorm:"type:numeric(10,2);not null;default:500;check:commission >= 0" json:"commission"`

	// DisplayedSalary is derived (salary_in_euros + commission) and is
	// never stored. Inbound values for it are ignored.
	DisplayedSalary decimal.NullDecimal `gorm:"-" json:"displayed_salary"`

	CreatedAt *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RecomputeDisplayedSalary refreshes the derived field from the current
// euro salary and commission. Null euros yields a null displayed salary,
// which is distinct from a computed zero.
func (e *Employee) RecomputeDisplayedSalary() {
	if e.SalaryInEuros.Valid {
		e.DisplayedSalary = decimal.NewNullDecimal(e.SalaryInEuros.Decimal.Add(e.Commission))
	} else {
		e.DisplayedSalary = decimal.NullDecimal{}
	}
}

func (e *Employee) AfterFind(tx *gorm.DB) error {
	e.RecomputeDisplayedSalary()
	return nil
}

// User is a login principal for the admin gate. Role "admin" unlocks the
// salary endpoints; everything else is a plain staff login.
type User struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string     `gorm:"uniqueIndex;not null" json:"username"`
	Email     string     `gorm:"uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"not null" json:"-"`
	Role      string     `gorm:"not null;default:staff" json:"role"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const RoleAdmin = "admin"
