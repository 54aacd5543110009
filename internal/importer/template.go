package importer

import "order-import-service/internal/models"

const templateVersion = "1.0"

var requiredFields = map[Field]bool{
	FieldProductName: true,
}

// OrderImportTemplate returns the canonical column set; each column is named after the
// first accepted source of its field and lists the remaining sources as aliases
func OrderImportTemplate() models.ImportTemplate {
	columns := make([]models.ImportTemplateColumn, 0, len(ColumnAliases))
	for _, alias := range ColumnAliases {
		col := models.ImportTemplateColumn{
			Name:        alias.Sources[0],
			Description: alias.Description,
			Required:    requiredFields[alias.Field],
			Type:        alias.Type,
			Example:     alias.Example,
		}
		if len(alias.Sources) > 1 {
			col.Aliases = append([]string(nil), alias.Sources[1:]...)
		}
		columns = append(columns, col)
	}
	return models.ImportTemplate{
		Entity:  "orders",
		Version: templateVersion,
		Columns: columns,
	}
}
