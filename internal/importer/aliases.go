package importer

import "strings"

// Field is a logical input field independent of the export's column titles
type Field string

const (
	FieldOrderNumber       Field = "orderNumber"
	FieldCustomerName      Field = "customerName"
	FieldCustomerFirstName Field = "customerFirstName"
	FieldCustomerLastName  Field = "customerLastName"
	FieldCustomerEmail     Field = "customerEmail"
	FieldClassName         Field = "className"
	FieldProductName       Field = "productName"
	FieldVariantTitle      Field = "variantTitle"
	FieldQuantity          Field = "quantity"
	FieldUnitPrice         Field = "unitPrice"
	FieldTotal             Field = "total"
	FieldOrderDate         Field = "orderDate"
	FieldProductTags       Field = "productTags"
)

// ColumnAlias lists the accepted source column names for a field, in priority order.
// Matching is exact and case-sensitive; the first non-empty value wins.
type ColumnAlias struct {
	Field       Field
	Sources     []string
	Description string
	Type        string
	Example     string
}

// ColumnAliases is the alias table for every supported export format.
// New export formats are supported by appending source names here.
var ColumnAliases = []ColumnAlias{
	{Field: FieldOrderNumber, Sources: []string{"Name"}, Description: "External order number; rows sharing it form one order", Type: "string", Example: "#1001"},
	{Field: FieldCustomerName, Sources: []string{"Customer Name"}, Description: "Full customer name", Type: "string", Example: "Anna Müller"},
	{Field: FieldCustomerFirstName, Sources: []string{"Customer: First name"}, Description: "Customer first name (used when the full name is missing)", Type: "string", Example: "Anna"},
	{Field: FieldCustomerLastName, Sources: []string{"Customer: Last name"}, Description: "Customer last name (used when the full name is missing)", Type: "string", Example: "Müller"},
	{Field: FieldCustomerEmail, Sources: []string{"Customer Email", "Email"}, Description: "Customer email", Type: "string", Example: "anna@example.com"},
	{Field: FieldClassName, Sources: []string{"Class Name", "Klasse", "Line items: Custom attributes Klasse"}, Description: "School class of the student", Type: "string", Example: "7b"},
	{Field: FieldProductName, Sources: []string{"Product Name", "Line items: Title"}, Description: "Product title; a trailing '| supplier' suffix is ignored", Type: "string", Example: "Hoodie"},
	{Field: FieldVariantTitle, Sources: []string{"Product Variant", "Line items: Variant title"}, Description: "Variant as 'Size / Color', a size or a color", Type: "string", Example: "M / Schwarz"},
	{Field: FieldQuantity, Sources: []string{"Quantity", "Line items: Quantity"}, Description: "Quantity (defaults to 1)", Type: "number", Example: "2"},
	{Field: FieldUnitPrice, Sources: []string{"Unit Price", "Line items: Price"}, Description: "Unit price (defaults to 0)", Type: "number", Example: "24.90"},
	{Field: FieldTotal, Sources: []string{"Subtotal price", "Total Amount", "Total"}, Description: "Order total; overrides the sum of line totals", Type: "number", Example: "49.80"},
	{Field: FieldOrderDate, Sources: []string{"Order Date", "Created at", "Created at (UTC)"}, Description: "Order date (ISO 8601, Excel date or dd.mm.yyyy)", Type: "date", Example: "2024-09-02 10:15:00 +0200"},
	{Field: FieldProductTags, Sources: []string{"Line items: Product Tags"}, Description: "Comma-separated product tags used to find the shop", Type: "string", Example: "shop-weinstadt-2024, Weinstadt"},
}

var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[Field][]string {
	index := make(map[Field][]string, len(ColumnAliases))
	for _, alias := range ColumnAliases {
		index[alias.Field] = alias.Sources
	}
	return index
}

// dateColumns are normalized to RFC 3339 by the parser
func dateColumns() map[string]bool {
	cols := make(map[string]bool)
	for _, src := range aliasIndex[FieldOrderDate] {
		cols[src] = true
	}
	return cols
}

// RawRow is one data row of an export keyed by its (trimmed) column titles
type RawRow struct {
	Line   int
	Fields map[string]string
}

// Get returns the first non-empty value among the field's source columns
func (r RawRow) Get(field Field) string {
	value, _ := r.Lookup(field)
	return value
}

// Lookup returns the first non-empty value and the column it was read from
func (r RawRow) Lookup(field Field) (string, string) {
	for _, src := range aliasIndex[field] {
		if v := strings.TrimSpace(r.Fields[src]); v != "" {
			return v, src
		}
	}
	return "", ""
}

// CustomerName prefers the full-name column and falls back to first + last name
func (r RawRow) CustomerName() string {
	if name := r.Get(FieldCustomerName); name != "" {
		return name
	}
	return strings.TrimSpace(r.Get(FieldCustomerFirstName) + " " + r.Get(FieldCustomerLastName))
}

// Normalize lowercases and trims a value for matching
func Normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
