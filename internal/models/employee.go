package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

type EmployeeType string

const (
	EmployeeTypeCashier EmployeeType = "Cashier"
	EmployeeTypeManager EmployeeType = "Manager"
)

type Address struct {
	Street string `gorm:"size:255" json:"street"`
	City   string `gorm:"size:255" json:"city"`
	Zip    string `gorm:"size:20" json:"zip"`
}

// Employee is stored in a single table; Type selects which of the variant
// columns (JobSpecialisation for cashiers, CarType for managers) is set.
type Employee struct {
	RegistrationNumber int          `gorm:"primaryKey;autoIncrement:false" json:"registrationNumber"`
	FirstName          string       `gorm:"size:255;not null" json:"firstName"`
	LastName           string       `gorm:"size:255;not null" json:"lastName"`
	Address            Address      `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Type               EmployeeType `gorm:"size:20;not null;index" json:"type"`
	JobSpecialisation  *string      `gorm:"size:255" json:"jobSpecialisation,omitempty"` // cashier only
	CarType            *string      `gorm:"size:25" json:"carType,omitempty"`            // manager only
	CreatedAt          time.Time    `json:"-"`
	UpdatedAt          time.Time    `json:"-"`
}

// maxCarTypeLength counts characters, like the varchar(25) column.
const maxCarTypeLength = 25

var (
	ErrInvalidRegistrationNumber = errors.New("registration number must be positive")
	ErrEmptyEmployeeName         = errors.New("first and last name are required")
	ErrCarTypeTooLong            = errors.New("car type must be at most 25 characters")
)

func NewCashier(registrationNumber int, firstName, lastName string, address Address, jobSpecialisation string) (Employee, error) {
	e := Employee{
		RegistrationNumber: registrationNumber,
		FirstName:          strings.TrimSpace(firstName),
		LastName:           strings.TrimSpace(lastName),
		Address:            address,
		Type:               EmployeeTypeCashier,
	}
	if s := strings.TrimSpace(jobSpecialisation); s != "" {
		e.JobSpecialisation = &s
	}
	return e, e.validate()
}

func NewManager(registrationNumber int, firstName, lastName string, address Address, carType string) (Employee, error) {
	e := Employee{
		RegistrationNumber: registrationNumber,
		FirstName:          strings.TrimSpace(firstName),
		LastName:           strings.TrimSpace(lastName),
		Address:            address,
		Type:               EmployeeTypeManager,
	}
	if s := strings.TrimSpace(carType); s != "" {
		if utf8.RuneCountInString(s) > maxCarTypeLength {
			return e, ErrCarTypeTooLong
		}
		e.CarType = &s
	}
	return e, e.validate()
}

func (e Employee) validate() error {
	if e.RegistrationNumber <= 0 {
		return ErrInvalidRegistrationNumber
	}
	if e.FirstName == "" || e.LastName == "" {
		return ErrEmptyEmployeeName
	}
	return nil
}

func (e Employee) IsManager() bool {
	return e.Type == EmployeeTypeManager
}

// CanTakeCreditCard reports whether the employee may operate credit card payments.
func (e Employee) CanTakeCreditCard() bool {
	return e.IsManager()
}
