package template

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/workerimport/internal/decoder"
	"github.com/nconklindev/workerimport/internal/validation"
)

func TestHeaderMatchesFields(t *testing.T) {
	header := Header()
	if len(header) != 16 {
		t.Fatalf("Expected 16 columns, got %d", len(header))
	}
	if header[0] != "nombre" || header[len(header)-1] != "numero_empleado" {
		t.Errorf("Unexpected column order: %v", header)
	}
	if len(Example()) != len(header) {
		t.Errorf("Example has %d cells, header has %d", len(Example()), len(header))
	}
}

func TestTemplatesImportCleanly(t *testing.T) {
	var xlsx bytes.Buffer
	if err := WriteXLSX(&xlsx); err != nil {
		t.Fatalf("WriteXLSX() error: %v", err)
	}

	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"csv", CSVFileName, CSV()},
		{"xlsx", XLSXFileName, xlsx.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := decoder.Decode(tt.file, bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}

			rows := validation.ParseFile(data)
			if len(rows) != 1 {
				t.Fatalf("Expected 1 row, got %d", len(rows))
			}
			row := rows[0]
			if !row.IsValid {
				t.Errorf("Example row should be valid, errors: %v", row.Errors)
			}
			if row.Nombre != "Juan" || row.Area != "Producción" || row.NumeroEmpleado != "EMP-001" {
				t.Errorf("Unexpected parsed row: %+v", row)
			}
		})
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()

	for _, xlsx := range []bool{false, true} {
		path, err := Save(dir, xlsx)
		if err != nil {
			t.Fatalf("Save(xlsx=%v) error: %v", xlsx, err)
		}

		want := CSVFileName
		if xlsx {
			want = XLSXFileName
		}
		if filepath.Base(path) != want {
			t.Errorf("Expected file %s, got %s", want, filepath.Base(path))
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Template not written: %v", err)
		}
	}

	if _, err := Save(filepath.Join(dir, "missing"), false); err == nil {
		t.Error("Expected error writing into a missing directory")
	}
}
