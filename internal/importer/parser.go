package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"order-import-service/internal/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format: only CSV and XLSX files are supported")
	ErrEmptyFile         = errors.New("the file contains no data rows")
)

var xlsxSignature = []byte("PK\x03\x04")

// DetectFormat determines the file format from extension, declared content type and content
func DetectFormat(filename, contentType string, data []byte) (models.ImportFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return models.ImportFormatCSV, nil
	case ".xlsx":
		return models.ImportFormatXLSX, nil
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch mediaType {
	case "text/csv", "application/csv", "text/comma-separated-values":
		return models.ImportFormatCSV, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return models.ImportFormatXLSX, nil
	}

	if bytes.HasPrefix(data, xlsxSignature) {
		return models.ImportFormatXLSX, nil
	}
	if looksLikeCSV(data) {
		return models.ImportFormatCSV, nil
	}
	return "", ErrUnsupportedFormat
}

func looksLikeCSV(data []byte) bool {
	if len(data) == 0 || !utf8.Valid(data) {
		return false
	}
	firstLine := string(data)
	if i := strings.IndexAny(firstLine, "\r\n"); i >= 0 {
		firstLine = firstLine[:i]
	}
	return strings.ContainsAny(firstLine, ",;")
}

// ParseFile turns an uploaded export into rows in file order
func ParseFile(data []byte, filename, contentType string) ([]RawRow, models.ImportFormat, error) {
	format, err := DetectFormat(filename, contentType, data)
	if err != nil {
		return nil, "", err
	}

	var rows []RawRow
	if format == models.ImportFormatCSV {
		rows, err = ParseCSV(bytes.NewReader(data))
	} else {
		rows, err = ParseXLSX(bytes.NewReader(data))
	}
	if err != nil {
		return nil, format, err
	}
	if len(rows) == 0 {
		return nil, format, ErrEmptyFile
	}
	return rows, format, nil
}

// ParseCSV parses a CSV export using its header row as field names
func ParseCSV(file io.Reader) ([]RawRow, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = detectDelimiter(content)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	dates := dateColumns()
	var rows []RawRow
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum, err)
		}
		if row, ok := buildRow(headers, record, lineNum, dates); ok {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

// detectDelimiter picks ';' for exports whose header uses more semicolons than commas
func detectDelimiter(content []byte) rune {
	header := content
	if i := bytes.IndexAny(content, "\r\n"); i >= 0 {
		header = content[:i]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

// ParseXLSX parses the first sheet of an Excel workbook using its header row as field names
func ParseXLSX(file io.Reader) ([]RawRow, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	// Raw values keep date cells as serial numbers so they can be normalized like any other date
	excelRows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) == 0 {
		return nil, nil
	}

	headers := excelRows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	dates := dateColumns()
	var rows []RawRow
	for rowIdx, excelRow := range excelRows[1:] {
		if row, ok := buildRow(headers, excelRow, rowIdx+2, dates); ok {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

// buildRow maps a record onto the headers; missing cells become "". Blank records are dropped.
func buildRow(headers, record []string, line int, dates map[string]bool) (RawRow, bool) {
	row := RawRow{Line: line, Fields: make(map[string]string, len(headers))}
	blank := true
	for i, header := range headers {
		if header == "" {
			continue
		}
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		if value != "" {
			blank = false
		}
		if dates[header] {
			value = NormalizeDate(value)
		}
		row.Fields[header] = value
	}
	return row, !blank
}
