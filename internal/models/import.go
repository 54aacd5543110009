package models

import "github.com/google/uuid"

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportOutcome describes what happened to one grouped order during an import run
type ImportOutcome string

const (
	ImportOutcomeCreated    ImportOutcome = "created"
	ImportOutcomeExtended   ImportOutcome = "extended"
	ImportOutcomeFailed     ImportOutcome = "failed"
	ImportOutcomeUnresolved ImportOutcome = "unresolved"
	ImportOutcomePreview    ImportOutcome = "preview"
)

// Error codes reported per order
const (
	ImportErrShopUnresolved = "SHOP_UNRESOLVED"
	ImportErrNoValidItems   = "NO_VALID_ITEMS"
	ImportErrOrderCreate    = "ORDER_CREATE_FAILED"
	ImportErrOrderUpdate    = "ORDER_UPDATE_FAILED"
	ImportErrItemsCreate    = "ITEMS_CREATE_FAILED"
	ImportErrItemUnresolved = "ITEM_UNRESOLVED"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Type        string   `json:"type"` // string, number, date
	Example     string   `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ImportRowError represents a diagnostic for a specific source row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportOrderError represents a failure isolated to one grouped order
type ImportOrderError struct {
	OrderKey string `json:"orderKey"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// ImportedOrder summarizes the outcome for one grouped order
type ImportedOrder struct {
	OrderKey       string        `json:"orderKey"`
	OrderNumber    string        `json:"orderNumber,omitempty"`
	OrderID        *uuid.UUID    `json:"orderId,omitempty"`
	ShopName       string        `json:"shopName,omitempty"`
	MatchedBy      string        `json:"matchedBy,omitempty"`
	CustomerName   string        `json:"customerName"`
	CustomerEmail  string        `json:"customerEmail,omitempty"`
	ClassName      string        `json:"className,omitempty"`
	Outcome        ImportOutcome `json:"outcome"`
	ItemsCreated   int           `json:"itemsCreated"`
	DuplicateItems int           `json:"duplicateItems"`
	TotalAmount    float64       `json:"totalAmount"`
}

// OrderImportResult is the summary returned to the operator after an import run
type OrderImportResult struct {
	Success         bool               `json:"success"`
	DryRun          bool               `json:"dryRun"`
	TotalRows       int                `json:"totalRows"`
	Imported        int                `json:"imported"`
	Extended        int                `json:"extended"`
	Skipped         int                `json:"skipped"`
	DuplicateItems  int                `json:"duplicateItems"`
	ProductsCreated int                `json:"productsCreated"`
	VariantsCreated int                `json:"variantsCreated"`
	Orders          []ImportedOrder    `json:"orders"`
	ShopStats       map[string]int     `json:"shopStats"`
	Errors          []ImportOrderError `json:"errors,omitempty"`
	ErrorCount      int                `json:"errorCount"`
	Warnings        []ImportRowError   `json:"warnings,omitempty"`
	WarningCount    int                `json:"warningCount"`
	ProcessingMs    int64              `json:"processingMs"`
}
