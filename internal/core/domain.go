package core

import (
	"errors"

	"github.com/google/uuid"
)

const (
	Expense TxType = "expense"
	Income  TxType = "income"

	// FilterAll is the sentinel filter value meaning "no category filter".
	FilterAll = "all"
)

type (
	TxType string

	// Transaction is one recorded money movement. Field names follow the
	// wallet backup format, so exported files stay importable elsewhere.
	Transaction struct {
		ID       string  `json:"id"`
		Type     TxType  `json:"type"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
		Date     string  `json:"date"`  // ISO YYYY-MM-DD
		Month    string  `json:"month"` // YYYY-MM, derived from Date at creation
		Note     string  `json:"note"`
	}

	// Document is the persisted root object: the whole ledger plus the
	// current view selection.
	Document struct {
		Cats      []string      `json:"cats"`
		Tx        []Transaction `json:"tx"`
		FilterCat string        `json:"filterCat"`
		Month     string        `json:"month"`
	}
)

// DefaultCategories seeds a fresh document.
var DefaultCategories = []string{"Еда", "Транспорт", "Дом", "Связь", "Развлечения", "Подарки", "Здоровье", "Другое"}

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("empty category name")
	ErrDuplicateName = errors.New("duplicate category name")
	ErrBadBackup     = errors.New("not a wallet backup")
)

// NewID returns a fresh transaction identifier. IDs must stay unique even
// across documents that are later merged through import, so a UUID is used
// rather than a counter.
func NewID() string {
	return uuid.New().String()
}
