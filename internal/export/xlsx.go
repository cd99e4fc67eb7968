package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/model"
)

// OutputPath builds the timestamped workbook path under dir.
func OutputPath(dir, prefix string, now time.Time) string {
	name := fmt.Sprintf("%s_%s.xlsx", prefix, now.Format("20060102_150405"))
	return filepath.Join(dir, name)
}

// Write renders the record set to an XLSX workbook at path. The parent
// directory is created if missing.
func Write(path, sheetName string, set *model.Set) error {
	if sheetName == "" {
		sheetName = "Sheet1"
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %q", sheetName)
	}

	header := sheet.AddRow()
	for _, col := range model.Columns {
		header.AddCell().SetString(col)
	}

	for _, rec := range set.Records() {
		row := sheet.AddRow()
		for _, cell := range rec.Row() {
			row.AddCell().SetString(cell)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "export: create output dir")
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}

	zap.L().Info("export: workbook written",
		zap.String("path", path),
		zap.Int("records", set.Len()),
	)
	return nil
}
