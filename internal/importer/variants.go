package importer

import (
	"regexp"
	"strings"
)

var sizePattern = regexp.MustCompile(`(?i)^(XS|S|M|L|XL|XXL|XXXL|\d+)$`)

// shopifyDefaultVariant is the title Shopify exports for products without options
const shopifyDefaultVariant = "default title"

// VariantSpec is the parsed form of a free-text variant title
type VariantSpec struct {
	Size  string
	Color string
	// Raw holds the trimmed title when it yielded neither size nor color
	Raw string
}

// IsEmpty reports whether the item is a plain product line
func (v VariantSpec) IsEmpty() bool {
	return v.Size == "" && v.Color == "" && v.Raw == ""
}

// DisplayName renders a variant the way it is shown to operators
func (v VariantSpec) DisplayName() string {
	switch {
	case v.Size != "" && v.Color != "":
		return v.Size + " / " + v.Color
	case v.Size != "":
		return v.Size
	case v.Color != "":
		return v.Color
	default:
		return v.Raw
	}
}

// IsSize reports whether a single variant segment names a size
func IsSize(value string) bool {
	return sizePattern.MatchString(strings.TrimSpace(value))
}

// ParseVariantTitle splits "Size / Color" titles. A single segment is a size when it
// looks like one and a color otherwise.
func ParseVariantTitle(title string) VariantSpec {
	title = strings.TrimSpace(title)
	if title == "" || strings.EqualFold(title, shopifyDefaultVariant) {
		return VariantSpec{}
	}

	parts := strings.SplitN(title, "/", 2)
	if len(parts) == 2 {
		size := strings.TrimSpace(parts[0])
		color := strings.TrimSpace(parts[1])
		switch {
		case size != "" && color != "":
			return VariantSpec{Size: size, Color: color}
		case size != "":
			return classifySegment(size)
		case color != "":
			return classifySegment(color)
		default:
			return VariantSpec{Raw: title}
		}
	}

	return classifySegment(title)
}

func classifySegment(segment string) VariantSpec {
	if IsSize(segment) {
		return VariantSpec{Size: segment}
	}
	return VariantSpec{Color: segment}
}

// StripSupplierSuffix removes a legacy "| supplier" suffix from a product title
func StripSupplierSuffix(name string) string {
	if i := strings.Index(name, "|"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}
