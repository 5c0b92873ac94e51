package checks

import (
	"fmt"
	"reflect"
	"strings"

	"track-resolver/core/database"

	"gorm.io/gorm"
)

// SchemaReport compares a table with the gorm model that writes to it.
type SchemaReport struct {
	Table          string   `json:"table"`
	Matched        bool     `json:"matched"`
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Errors         []string `json:"errors"`
	Status         string   `json:"status"` // "ok", "error"
}

// CheckSchema verifies the table behind model, using its gorm tags as the
// source of truth. model must implement TableName.
func CheckSchema(db *gorm.DB, model any) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	tabler, ok := model.(interface{ TableName() string })
	if !ok {
		return nil, fmt.Errorf("model %T does not implement TableName", model)
	}

	report := &SchemaReport{
		Table:          tabler.TableName(),
		Matched:        true,
		MissingColumns: []string{},
		TypeMismatches: []string{},
		Errors:         []string{},
		Status:         "ok",
	}

	actual, err := database.GetTableColumns(db, report.Table)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", report.Table, err))
		report.Matched = false
		report.Status = "error"
		return report, nil
	}

	expected, types := modelColumns(reflect.TypeOf(model))
	if missing := database.MissingColumns(actual, expected); len(missing) > 0 {
		report.MissingColumns = missing
	}

	byName := make(map[string]database.ColumnInfo, len(actual))
	for _, col := range actual {
		byName[col.Field] = col
	}
	for _, name := range expected {
		want := types[name]
		got, exists := byName[name]
		if want == "" || !exists {
			continue
		}
		// Soft check: varchar(255) satisfies size-less expectations and
		// dialects differ in spelling.
		if !strings.Contains(got.Type, want) {
			report.TypeMismatches = append(report.TypeMismatches,
				fmt.Sprintf("%s: expected %s, got %s", name, want, got.Type))
		}
	}

	if len(report.MissingColumns) > 0 || len(report.TypeMismatches) > 0 {
		report.Matched = false
		report.Status = "error"
	}
	return report, nil
}

// modelColumns returns the column names of a gorm model in field order and
// the explicit types declared for them.
func modelColumns(t reflect.Type) ([]string, map[string]string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var names []string
	types := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("gorm")
		col := parseGormColumn(tag)
		if col == "" {
			continue
		}
		names = append(names, col)
		types[col] = strings.ToLower(parseGormType(tag))
	}
	return names, types
}

func parseGormColumn(tag string) string {
	return gormSetting(tag, "column:")
}

func parseGormType(tag string) string {
	return gormSetting(tag, "type:")
}

func gormSetting(tag, prefix string) string {
	for _, p := range strings.Split(tag, ";") {
		if strings.HasPrefix(p, prefix) {
			return strings.TrimPrefix(p, prefix)
		}
	}
	return ""
}
