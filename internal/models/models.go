package models

import (
	"time"
)

// Category - Product grouping, resolved onto sale items at read time
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100" json:"name"`
}

// Customer - Optional buyer reference on a sale
type Customer struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:150" json:"name"`
}

// Product - The Inventory
type Product struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:200" json:"name"`
	Price      float64   `json:"price"`
	Cost       float64   `json:"cost"`
	Stock      int       `gorm:"not null;default:0;check:chk_products_stock,stock >= 0" json:"stock"`
	CategoryID *uint     `json:"categoryId"`
	Category   *Category `json:"-"`
}

// TicketStatus is free-form: any status may follow any other.
type TicketStatus string

const (
	TicketActive         TicketStatus = "Active"
	TicketOnHold         TicketStatus = "OnHold"
	TicketPendingPayment TicketStatus = "PendingPayment"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketActive, TicketOnHold, TicketPendingPayment:
		return true
	}
	return false
}

// Ticket - A draft cart. Deleted on close or checkout, never kept as history.
type Ticket struct {
	ID            string       `gorm:"primaryKey;size:36" json:"id"`
	Name          string       `gorm:"size:100" json:"name"`
	Status        TicketStatus `gorm:"size:20;index" json:"status"`
	CartItems     []TicketItem `gorm:"serializer:json;type:text" json:"cart_items"`
	Version       int          `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time    `json:"created_at"`
	LastUpdatedAt time.Time    `gorm:"index" json:"last_updated_at"`
}

// TicketItem - One cart line. UnitPrice and TotalPrice are always derived
// from OriginalUnitPrice, DiscountPercentage and Quantity.
type TicketItem struct {
	ProductID          uint    `json:"productId"`
	ProductName        string  `json:"productName"`
	Quantity           int     `json:"quantity"`
	OriginalUnitPrice  float64 `json:"originalUnitPrice"`
	DiscountPercentage float64 `json:"discountPercentage"`
	UnitPrice          float64 `json:"unitPrice"`
	TotalPrice         float64 `json:"totalPrice"`
	CostPrice          float64 `json:"costPrice"`
}

// PaymentMethod accepted at checkout
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "Cash"
	PaymentCard     PaymentMethod = "Card"
	PaymentTransfer PaymentMethod = "Transfer"
	PaymentCombined PaymentMethod = "Combined"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentCombined:
		return true
	}
	return false
}

// Sale - The Transaction Header. Written once at commit, never mutated.
type Sale struct {
	ID            string        `gorm:"primaryKey;size:36" json:"id"`
	Date          time.Time     `gorm:"index" json:"date"`
	TotalAmount   float64       `json:"totalAmount"`
	CustomerID    *uint         `json:"customerId"`
	Customer      *Customer     `gorm:"constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
	CustomerName  string        `gorm:"size:150" json:"customerName,omitempty"`
	PaymentMethod PaymentMethod `gorm:"size:20" json:"paymentMethod"`
	CashierID     string        `gorm:"size:64" json:"cashierId"`
	Items         []SaleItem    `gorm:"foreignKey:SaleID" json:"items"`
}

// SaleItem - A sold line. Name and prices are snapshots; Category is joined on read
// and is nil when the product (or its category) no longer exists.
type SaleItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	SaleID      string  `gorm:"size:36;index" json:"saleId"`
	ProductID   uint    `gorm:"index" json:"productId"`
	ProductName string  `gorm:"size:200" json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	CostPrice   float64 `json:"costPrice"`
	TotalPrice  float64 `json:"totalPrice"`
	Category    *string `gorm:"->;-:migration" json:"category"`
}

// TransactionType of an inventory ledger row
type TransactionType string

const (
	TransactionSale       TransactionType = "Sale"
	TransactionPurchase   TransactionType = "Purchase"
	TransactionAdjustment TransactionType = "Adjustment"
	TransactionReturn     TransactionType = "Return"
)

// InventoryTransaction - Append-only ledger. One row per stock change.
type InventoryTransaction struct {
	ID                string          `gorm:"primaryKey;size:36" json:"id"`
	ProductID         uint            `gorm:"index" json:"product_id"`
	ProductName       string          `gorm:"size:200" json:"product_name"`
	TransactionType   TransactionType `gorm:"size:20" json:"transaction_type"`
	QuantityChange    int             `json:"quantity_change"`
	StockBefore       int             `json:"stock_before"`
	StockAfter        int             `json:"stock_after"`
	RelatedDocumentID string          `gorm:"size:36;index" json:"related_document_id"`
	Notes             string          `gorm:"size:255" json:"notes"`
	TransactionDate   time.Time       `json:"transaction_date"`
}
