package models

import "time"

type CashDesk struct {
	Number    int `gorm:"primaryKey;autoIncrement:false" json:"number"`
	CreatedAt time.Time
}
