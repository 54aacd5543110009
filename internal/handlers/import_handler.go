package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"order-import-service/internal/importer"
	"order-import-service/internal/models"
	"order-import-service/internal/services"
)

// OrderImporter runs an order import
type OrderImporter interface {
	Import(ctx context.Context, req services.ImportRequest) (*models.OrderImportResult, error)
}

type ImportHandler struct {
	importer       OrderImporter
	maxUploadBytes int64
	logger         *logrus.Entry
}

func NewImportHandler(svc OrderImporter, maxUploadBytes int64, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		importer:       svc,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.WithField("component", "import-handler"),
	}
}

// GetImportTemplate returns the import template definition or file
// @Summary Get order import template
// @Description Returns the accepted columns as JSON or as a downloadable CSV/XLSX template
// @Tags Orders
// @Produce json
// @Param format query string false "json, csv or xlsx" default(json)
// @Success 200 {object} models.ImportTemplate
// @Router /orders/import/template [get]
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := importer.OrderImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=orders_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	if err := writer.Write(headers); err != nil {
		h.logger.WithError(err).Error("Failed to write CSV template")
	}
}

// generateXLSXTemplate generates and downloads an Excel template with an instructions sheet
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Orders"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Header titles must stay exact, so required columns are marked by color only
	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col.Name)
		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 22)
	}

	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Order Import Instructions")

	f.SetCellValue("Instructions", "A3", "GROUPING:")
	f.SetCellValue("Instructions", "A4", "- Rows with the same order number form one order; continuation rows may leave customer columns empty.")
	f.SetCellValue("Instructions", "A5", "- Without an order number, rows are grouped by customer name, email and class.")

	f.SetCellValue("Instructions", "A7", "SHOP ASSIGNMENT:")
	f.SetCellValue("Instructions", "A8", "- Product tags are matched against shop slugs, school codes, shop names and school names.")
	f.SetCellValue("Instructions", "A9", "- Orders without a matching tag are reported and not imported.")

	f.SetCellValue("Instructions", "A11", "PRODUCTS:")
	f.SetCellValue("Instructions", "A12", "- Products and variants that do not exist in the shop are created automatically.")
	f.SetCellValue("Instructions", "A13", "- Re-importing the same file does not duplicate orders or items.")

	f.SetCellValue("Instructions", "A15", "Column Definitions:")
	f.SetCellValue("Instructions", "A16", "Column")
	f.SetCellValue("Instructions", "B16", "Description")
	f.SetCellValue("Instructions", "C16", "Required")
	f.SetCellValue("Instructions", "D16", "Type")
	f.SetCellValue("Instructions", "E16", "Example")
	f.SetCellValue("Instructions", "F16", "Also accepted as")

	for i, col := range template.Columns {
		row := i + 17
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
		if len(col.Aliases) > 0 {
			f.SetCellValue("Instructions", fmt.Sprintf("F%d", row), fmt.Sprintf("%q", col.Aliases))
		}
	}

	f.SetColWidth("Instructions", "A", "A", 28)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "D", 12)
	f.SetColWidth("Instructions", "E", "E", 30)
	f.SetColWidth("Instructions", "F", "F", 50)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=orders_import_template.xlsx")

	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write XLSX template")
	}
}

// ImportOrders imports an order export and assigns each order to a shop by its product tags
// @Summary Import orders
// @Description Imports a CSV or XLSX order export. Shops are resolved from product tags.
// @Tags Orders
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX export"
// @Param validateOnly formData bool false "Validate without writing"
// @Success 200 {object} models.OrderImportResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /orders/import [post]
func (h *ImportHandler) ImportOrders(c *gin.Context) {
	h.handleImport(c, nil)
}

// ImportShopOrders imports an order export into one known shop
// @Summary Import orders into a shop
// @Description Imports a CSV or XLSX order export. Every order is assigned to the given shop.
// @Tags Orders
// @Accept multipart/form-data
// @Produce json
// @Param shopId path string true "Shop ID"
// @Param file formData file true "CSV or XLSX export"
// @Param validateOnly formData bool false "Validate without writing"
// @Success 200 {object} models.OrderImportResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /shops/{shopId}/orders/import [post]
func (h *ImportHandler) ImportShopOrders(c *gin.Context) {
	shopID, err := uuid.Parse(c.Param("shopId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_SHOP_ID",
				Message: "Invalid shop ID format",
				Field:   "shopId",
			},
		})
		return
	}
	h.handleImport(c, &shopID)
}

func (h *ImportHandler) handleImport(c *gin.Context, shopID *uuid.UUID) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "FILE_TOO_LARGE",
					Message: fmt.Sprintf("The file exceeds the upload limit of %d bytes", maxBytesErr.Limit),
				},
			})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload a CSV or Excel file",
				Field:   "file",
			},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_READ_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	req := services.ImportRequest{
		Data:         data,
		Filename:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		ShopID:       shopID,
		ValidateOnly: c.DefaultPostForm("validateOnly", "false") == "true",
	}

	result, err := h.importer.Import(c.Request.Context(), req)
	if err != nil {
		status, code := importErrorStatus(err)
		log := h.logger.WithFields(logrus.Fields{
			"filename": header.Filename,
			"code":     code,
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			log.Error("Order import failed")
		} else {
			log.Warn("Order import rejected")
		}
		c.JSON(status, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    code,
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// importErrorStatus maps run-level import errors to an HTTP status and error code
func importErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, importer.ErrUnsupportedFormat):
		return http.StatusBadRequest, "INVALID_FORMAT"
	case errors.Is(err, importer.ErrEmptyFile):
		return http.StatusBadRequest, "EMPTY_FILE"
	case errors.Is(err, services.ErrInvalidFile):
		return http.StatusBadRequest, "PARSE_ERROR"
	case errors.Is(err, services.ErrShopNotFound):
		return http.StatusNotFound, "SHOP_NOT_FOUND"
	case errors.Is(err, services.ErrImportInProgress):
		return http.StatusConflict, "IMPORT_IN_PROGRESS"
	case errors.Is(err, services.ErrNoShops):
		return http.StatusInternalServerError, "NO_SHOPS"
	default:
		return http.StatusInternalServerError, "IMPORT_FAILED"
	}
}
