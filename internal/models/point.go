package models

import (
	"time"
)

type TransactionType string

const (
	TransactionTypeCharge TransactionType = "CHARGE"
	TransactionTypeUse    TransactionType = "USE"
)

// Current user points
// Users never written before have zero points
type UserPoint struct {
	UserID    int64
	Points    int64
	UpdatedAt time.Time
}

// Point history entry. Immutable once written
// Amount is positive for charges and negative for uses
type PointHistory struct {
	ID        int64
	UserID    int64
	Amount    int64
	Type      TransactionType
	Timestamp time.Time
}
