// Package validation turns decoded rows into ParsedRows and classifies them.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nconklindev/workerimport/internal/alias"
	"github.com/nconklindev/workerimport/internal/types"
)

// CURPLength is the fixed length of a Mexican CURP.
const CURPLength = 18

var (
	ErrMissingNombre          = errors.New("nombre is required")
	ErrMissingApellidoPaterno = errors.New("apellido_paterno is required")
	ErrMissingPuesto          = errors.New("puesto is required")
	ErrCURPLength             = errors.New("curp must be 18 characters")
	ErrInvalidEmail           = errors.New("email is not valid")
)

// ValidateRow normalizes one record and checks it. It does no I/O and always
// returns the same ParsedRow for the same input.
func ValidateRow(row int, rec alias.Record) types.ParsedRow {
	get := func(f alias.Field) string {
		return strings.TrimSpace(rec.Get(f))
	}

	p := types.ParsedRow{
		Row:             row,
		Nombre:          get(alias.Nombre),
		ApellidoPaterno: get(alias.ApellidoPaterno),
		ApellidoMaterno: get(alias.ApellidoMaterno),
		CURP:            strings.ToUpper(get(alias.CURP)),
		NSS:             get(alias.NSS),
		RFC:             strings.ToUpper(get(alias.RFC)),
		Email:           get(alias.Email),
		Puesto:          get(alias.Puesto),
		Area:            get(alias.Area),
		Departamento:    get(alias.Departamento),
		Turno:           get(alias.Turno),
		FechaNacimiento: get(alias.FechaNacimiento),
		FechaIngreso:    get(alias.FechaIngreso),
		Genero:          get(alias.Genero),
		Telefono:        get(alias.Telefono),
		NumeroEmpleado:  get(alias.NumeroEmpleado),
	}

	var errs []string
	if p.Nombre == "" {
		errs = append(errs, ErrMissingNombre.Error())
	}
	if p.ApellidoPaterno == "" {
		errs = append(errs, ErrMissingApellidoPaterno.Error())
	}
	if p.Puesto == "" {
		errs = append(errs, ErrMissingPuesto.Error())
	}
	if p.CURP != "" {
		if n := utf8.RuneCountInString(p.CURP); n != CURPLength {
			errs = append(errs, fmt.Sprintf("%s (got %d)", ErrCURPLength, n))
		}
	}
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		errs = append(errs, ErrInvalidEmail.Error())
	}

	p.Errors = errs
	p.IsValid = len(errs) == 0
	return p
}

// ParseFile resolves the header row once and validates every data row.
func ParseFile(data *types.FileData) []types.ParsedRow {
	mapping := alias.MapHeaders(data.Headers)

	rows := make([]types.ParsedRow, 0, len(data.Rows))
	for i, cells := range data.Rows {
		line := i + 2
		if i < len(data.Lines) {
			line = data.Lines[i]
		}
		rows = append(rows, ValidateRow(line, mapping.Record(cells)))
	}
	return rows
}

func Summarize(rows []types.ParsedRow) types.Summary {
	s := types.Summary{Total: len(rows)}
	for _, r := range rows {
		if r.IsValid {
			s.Valid++
		}
	}
	s.Invalid = s.Total - s.Valid
	return s
}
