package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"order-import-service/internal/models"
)

// ===========================================
// Format Detection Tests
// ===========================================

func TestDetectFormat_ByExtension(t *testing.T) {
	format, err := DetectFormat("Orders.CSV", "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ImportFormatCSV, format)

	format, err = DetectFormat("export.xlsx", "application/octet-stream", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ImportFormatXLSX, format)
}

func TestDetectFormat_ByContentType(t *testing.T) {
	format, err := DetectFormat("upload", "text/csv; charset=utf-8", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ImportFormatCSV, format)

	format, err = DetectFormat("upload", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ImportFormatXLSX, format)
}

func TestDetectFormat_BySignature(t *testing.T) {
	format, err := DetectFormat("upload", "application/octet-stream", []byte("PK\x03\x04rest-of-zip"))
	require.NoError(t, err)
	assert.Equal(t, models.ImportFormatXLSX, format)

	format, err = DetectFormat("upload", "", []byte("Name,Product Name\n#1,Shirt\n"))
	require.NoError(t, err)
	assert.Equal(t, models.ImportFormatCSV, format)
}

func TestDetectFormat_Unsupported(t *testing.T) {
	_, err := DetectFormat("orders.pdf", "application/pdf", []byte{0x25, 0x50, 0x44, 0x46, 0xff, 0xfe})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// ===========================================
// CSV Tests
// ===========================================

func TestParseCSV_TrimsHeadersAndValues(t *testing.T) {
	data := "\xef\xbb\xbf Name , Product Name ,Quantity\n#100,  Shirt  ,2\n"

	rows, err := ParseCSV(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "#100", rows[0].Get(FieldOrderNumber))
	assert.Equal(t, "Shirt", rows[0].Get(FieldProductName))
	assert.Equal(t, "2", rows[0].Get(FieldQuantity))
}

func TestParseCSV_SemicolonDelimiter(t *testing.T) {
	data := "Name;Product Name;Unit Price\n#7;Hoodie;24,90\n"

	rows, err := ParseCSV(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Hoodie", rows[0].Get(FieldProductName))
	assert.Equal(t, "24,90", rows[0].Get(FieldUnitPrice))
}

func TestParseCSV_RaggedAndBlankRows(t *testing.T) {
	data := "Name,Product Name,Quantity\n#1,Shirt\n,,\n#2,Cap,3,extra\n"

	rows, err := ParseCSV(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0].Get(FieldQuantity))
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "#2", rows[1].Get(FieldOrderNumber))
	assert.Equal(t, 4, rows[1].Line)
}

func TestParseCSV_NormalizesDateColumns(t *testing.T) {
	data := "Name,Created at\n#1,2024-09-02 10:15:00 +0200\n"

	rows, err := ParseCSV(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-09-02T08:15:00Z", rows[0].Get(FieldOrderDate))
}

func TestParseFile_HeaderOnlyIsEmpty(t *testing.T) {
	_, _, err := ParseFile([]byte("Name,Product Name\n"), "orders.csv", "text/csv")
	assert.ErrorIs(t, err, ErrEmptyFile)
}

// ===========================================
// XLSX Tests
// ===========================================

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	f.NewSheet("Ignored")
	f.SetCellValue("Ignored", "A1", "Name")
	f.SetCellValue("Ignored", "A2", "#999")

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseFile_XLSXFirstSheetOnly(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Name", "Customer Name", "Product Name", "Quantity", "Order Date"},
		{"#100", "Anna Müller", "Shirt", 2, 45536.5},
		{"#100", nil, "Cap"},
	})

	rows, format, err := ParseFile(data, "orders.xlsx", "")

	require.NoError(t, err)
	assert.Equal(t, models.ImportFormatXLSX, format)
	require.Len(t, rows, 2)
	assert.Equal(t, "Anna Müller", rows[0].Get(FieldCustomerName))
	assert.Equal(t, "2", rows[0].Get(FieldQuantity))
	assert.Equal(t, "2024-09-01T12:00:00Z", rows[0].Get(FieldOrderDate))
	assert.Equal(t, "", rows[1].Get(FieldQuantity))
	assert.Equal(t, 3, rows[1].Line)
}

func TestParseFile_CorruptXLSX(t *testing.T) {
	_, format, err := ParseFile([]byte("PK\x03\x04garbage"), "orders.xlsx", "")

	assert.Equal(t, models.ImportFormatXLSX, format)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyFile)
}

// ===========================================
// Normalization Tests
// ===========================================

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2024-09-02T10:15:00+02:00": "2024-09-02T08:15:00Z",
		"2024-09-02 10:15:00 +0200": "2024-09-02T08:15:00Z",
		"2024-09-02":                "2024-09-02T00:00:00Z",
		"02.09.2024":                "2024-09-02T00:00:00Z",
		"02.09.2024 14:30":          "2024-09-02T14:30:00Z",
		"45536":                     "2024-09-01T00:00:00Z",
		"45536.25":                  "2024-09-01T06:00:00Z",
		"next tuesday":              "next tuesday",
		"":                          "",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, NormalizeDate(input), input)
	}
}

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"10":         "10",
		"10.50":      "10.5",
		"10,50":      "10.5",
		"€ 1.234,56": "1234.56",
		"1,234.56":   "1234.56",
		"CHF 24.90":  "24.9",
	}
	for input, expected := range cases {
		amount, err := ParseAmount(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, amount.String(), input)
	}

	_, err := ParseAmount("ten")
	assert.Error(t, err)
	_, err = ParseAmount("€")
	assert.Error(t, err)
}

func TestParseQuantity(t *testing.T) {
	q, err := ParseQuantity("2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), q)

	q, err = ParseQuantity("3.0")
	require.NoError(t, err)
	assert.Equal(t, int64(3), q)

	q, err = ParseQuantity("-3")
	require.NoError(t, err)
	assert.Equal(t, int64(-3), q)

	_, err = ParseQuantity("1.5")
	assert.Error(t, err)
	_, err = ParseQuantity("two")
	assert.Error(t, err)

	q, err = ParseQuantity("2147483647")
	require.NoError(t, err)
	assert.Equal(t, int64(2147483647), q)

	for _, value := range []string{"2147483648", "99999999999999999999", "-99999999999999999999"} {
		_, err = ParseQuantity(value)
		assert.Error(t, err, value)
	}
}
