package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"field-service/internal/utils"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// LinkedPurchase traces an operation back to a marketplace purchase.
type LinkedPurchase struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    float64 `json:"quantity"`
}

// LinkedService traces an operation back to a requested service.
type LinkedService struct {
	ServiceID   string `json:"serviceId"`
	ServiceName string `json:"serviceName"`
}

// FieldOperation is an immutable ledger entry for work done on a field.
type FieldOperation struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	FieldID        uint            `gorm:"not null;index" json:"fieldId"`
	Type           string          `gorm:"type:varchar(255);not null" json:"type"`
	Date           datatypes.Date  `gorm:"not null" json:"date"`
	Notes          string          `gorm:"type:text" json:"notes"`
	Cost           *float64        `json:"cost,omitempty"`
	LinkedPurchase *LinkedPurchase `gorm:"type:text;serializer:json" json:"linkedPurchase,omitempty"`
	LinkedService  *LinkedService  `gorm:"type:text;serializer:json" json:"linkedService,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"-"`
}

func (FieldOperation) TableName() string {
	return "field_operations"
}

// Day returns the operation date as a time at UTC midnight.
func (o FieldOperation) Day() time.Time {
	return time.Time(o.Date)
}

// CostValue returns the cost, treating an absent cost as zero.
func (o FieldOperation) CostValue() float64 {
	if o.Cost == nil {
		return 0
	}
	return *o.Cost
}

func (o FieldOperation) MarshalJSON() ([]byte, error) {
	type alias FieldOperation
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{
		alias: alias(o),
		Date:  o.Day().Format(DateLayout),
	})
}

func (o *FieldOperation) UnmarshalJSON(data []byte) error {
	type alias FieldOperation
	aux := struct {
		*alias
		Date string `json:"date"`
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Date == "" {
		return nil
	}
	day, err := utils.ParseDate(aux.Date)
	if err != nil {
		return fmt.Errorf("operation date %q: %w", aux.Date, err)
	}
	o.Date = datatypes.Date(day)
	return nil
}
