package importer

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"order-import-service/internal/models"
)

// Row diagnostics reported as warnings
const (
	WarnInvalidQuantity = "INVALID_QUANTITY"
	WarnInvalidPrice    = "INVALID_PRICE"
	WarnInvalidTotal    = "INVALID_TOTAL"
)

// ParsedItem is one order line built from a single row
type ParsedItem struct {
	Line         int
	ProductName  string
	VariantTitle string
	Variant      VariantSpec
	Quantity     int
	UnitPrice    decimal.Decimal
	Tags         string
}

// LineTotal is unit price * quantity rounded to cents
func (i *ParsedItem) LineTotal() decimal.Decimal {
	return LineTotal(i.UnitPrice, i.Quantity)
}

// ParsedOrder is an order assembled from one or more rows
type ParsedOrder struct {
	Key           string
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	ClassName     string
	OrderDate     *time.Time
	Items         []*ParsedItem
	RunningTotal  decimal.Decimal
	TotalFromFile *decimal.Decimal
	Tags          []string
	Lines         []int

	// Set by shop resolution
	Shop      *models.Shop
	MatchedBy MatchStrategy
}

// Total returns the file-level total when present, else the summed line totals
func (o *ParsedOrder) Total() decimal.Decimal {
	if o.TotalFromFile != nil {
		return o.TotalFromFile.Round(2)
	}
	return o.RunningTotal.Round(2)
}

// GroupResult is the output of GroupOrders
type GroupResult struct {
	Orders      []*ParsedOrder
	SkippedRows int
	Warnings    []models.ImportRowError
}

// GroupOrders folds rows into orders. Pass one establishes each order's identity from
// the first row that carries a customer name; pass two attaches items. Orders keep the
// order in which their key first appears.
func GroupOrders(rows []RawRow) GroupResult {
	result := GroupResult{}
	byKey := make(map[string]*ParsedOrder)
	rowKeys := make([]string, len(rows))

	for i, row := range rows {
		orderNumber := row.Get(FieldOrderNumber)
		name := row.CustomerName()
		if orderNumber == "" && name == "" {
			result.SkippedRows++
			continue
		}

		key := orderNumber
		if key == "" {
			key = customerKey(name, row.Get(FieldCustomerEmail), row.Get(FieldClassName))
		}
		rowKeys[i] = key

		order, ok := byKey[key]
		if !ok {
			order = &ParsedOrder{Key: key, OrderNumber: orderNumber}
			byKey[key] = order
			result.Orders = append(result.Orders, order)
		}
		order.Lines = append(order.Lines, row.Line)
		applyHeader(order, row, name)
	}

	for i, row := range rows {
		key := rowKeys[i]
		if key == "" {
			continue
		}
		order := byKey[key]

		if tags := row.Get(FieldProductTags); tags != "" {
			order.Tags = append(order.Tags, tags)
		}
		applyFileTotal(order, row, &result)

		item, ok := parseItem(row, &result)
		if !ok {
			continue
		}
		order.Items = append(order.Items, item)
		order.RunningTotal = order.RunningTotal.Add(item.LineTotal())
	}

	return result
}

func customerKey(name, email, className string) string {
	return fmt.Sprintf("customer:%s|%s|%s", Normalize(name), Normalize(email), Normalize(className))
}

// applyHeader takes the identity from the first row with a customer name. Email, class
// and date of later rows are ignored, even when the header row leaves them blank.
func applyHeader(order *ParsedOrder, row RawRow, name string) {
	if order.CustomerName != "" || name == "" {
		return
	}
	order.CustomerName = name
	order.CustomerEmail = row.Get(FieldCustomerEmail)
	order.ClassName = row.Get(FieldClassName)
	if t, ok := ParseDate(row.Get(FieldOrderDate)); ok {
		order.OrderDate = &t
	}
}

func applyFileTotal(order *ParsedOrder, row RawRow, result *GroupResult) {
	raw, column := row.Lookup(FieldTotal)
	if raw == "" {
		return
	}
	total, err := ParseAmount(raw)
	if err != nil || total.IsNegative() {
		result.Warnings = append(result.Warnings, models.ImportRowError{
			Row:     row.Line,
			Column:  column,
			Code:    WarnInvalidTotal,
			Message: fmt.Sprintf("invalid order total %q ignored", raw),
		})
		return
	}
	if order.TotalFromFile == nil || total.GreaterThan(*order.TotalFromFile) {
		order.TotalFromFile = &total
	}
}

func parseItem(row RawRow, result *GroupResult) (*ParsedItem, bool) {
	name := StripSupplierSuffix(row.Get(FieldProductName))
	if name == "" {
		return nil, false
	}

	quantity := int64(1)
	if raw, column := row.Lookup(FieldQuantity); raw != "" {
		q, err := ParseQuantity(raw)
		if err != nil {
			result.Warnings = append(result.Warnings, models.ImportRowError{
				Row:     row.Line,
				Column:  column,
				Code:    WarnInvalidQuantity,
				Message: fmt.Sprintf("invalid quantity %q, row skipped", raw),
			})
			return nil, false
		}
		quantity = q
	}
	if quantity <= 0 {
		return nil, false
	}

	price := decimal.Zero
	if raw, column := row.Lookup(FieldUnitPrice); raw != "" {
		p, err := ParseAmount(raw)
		if err != nil || p.IsNegative() {
			result.Warnings = append(result.Warnings, models.ImportRowError{
				Row:     row.Line,
				Column:  column,
				Code:    WarnInvalidPrice,
				Message: fmt.Sprintf("invalid unit price %q, using 0", raw),
			})
		} else {
			price = p
		}
	}

	title := row.Get(FieldVariantTitle)
	return &ParsedItem{
		Line:         row.Line,
		ProductName:  name,
		VariantTitle: title,
		Variant:      ParseVariantTitle(title),
		Quantity:     int(quantity),
		UnitPrice:    price,
		Tags:         row.Get(FieldProductTags),
	}, true
}
