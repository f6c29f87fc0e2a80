// Package template produces the downloadable worker roster template.
package template

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nconklindev/workerimport/internal/alias"
)

const (
	CSVFileName  = "plantilla_trabajadores.csv"
	XLSXFileName = "plantilla_trabajadores.xlsx"

	sheetName = "Trabajadores"
)

// exampleRow is one illustrative, valid worker in template column order.
var exampleRow = map[alias.Field]string{
	alias.Nombre:          "Juan",
	alias.ApellidoPaterno: "García",
	alias.ApellidoMaterno: "López",
	alias.CURP:            "GALJ900101HDFRPN09",
	alias.NSS:             "12345678901",
	alias.RFC:             "GALJ900101AB1",
	alias.Email:           "juan.garcia@ejemplo.com",
	alias.Puesto:          "Operador",
	alias.Area:            "Producción",
	alias.Departamento:    "Ensamble",
	alias.Turno:           "Matutino",
	alias.FechaNacimiento: "1990-01-01",
	alias.FechaIngreso:    "2020-03-15",
	alias.Genero:          "M",
	alias.Telefono:        "5512345678",
	alias.NumeroEmpleado:  "EMP-001",
}

// Header returns the canonical column names.
func Header() []string {
	fields := alias.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

// Example returns the illustrative row aligned with Header.
func Example() []string {
	fields := alias.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = exampleRow[f]
	}
	return out
}

// CSV returns the template as UTF-8 text: the header line and one example line.
func CSV() []byte {
	var b bytes.Buffer
	b.WriteString(strings.Join(Header(), ","))
	b.WriteString("\n")
	b.WriteString(strings.Join(Example(), ","))
	b.WriteString("\n")
	return b.Bytes()
}

func WriteCSV(w io.Writer) error {
	_, err := w.Write(CSV())
	return err
}

// WriteXLSX writes the template as a single-sheet workbook.
func WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := Header()
	headerCells, exampleCells := toCells(header), toCells(Example())
	if err := f.SetSheetRow(sheetName, "A1", &headerCells); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A2", &exampleCells); err != nil {
		return fmt.Errorf("write example: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	_, err = f.WriteTo(w)
	return err
}

// Save writes the template into dir and returns the file path.
func Save(dir string, xlsx bool) (string, error) {
	name := CSVFileName
	if xlsx {
		name = XLSXFileName
	}
	path := filepath.Join(dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create template: %w", err)
	}

	if xlsx {
		err = WriteXLSX(out)
	} else {
		err = WriteCSV(out)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write template: %w", err)
	}
	return path, nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
