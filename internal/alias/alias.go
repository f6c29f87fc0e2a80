// Package alias resolves loosely named spreadsheet headers onto the fixed set
// of worker fields.
package alias

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Field string

const (
	Nombre          Field = "nombre"
	ApellidoPaterno Field = "apellido_paterno"
	ApellidoMaterno Field = "apellido_materno"
	CURP            Field = "curp"
	NSS             Field = "nss"
	RFC             Field = "rfc"
	Email           Field = "email"
	Puesto          Field = "puesto"
	Area            Field = "area"
	Departamento    Field = "departamento"
	Turno           Field = "turno"
	FechaNacimiento Field = "fecha_nacimiento"
	FechaIngreso    Field = "fecha_ingreso"
	Genero          Field = "genero"
	Telefono        Field = "telefono"
	NumeroEmpleado  Field = "numero_empleado"
)

var fields = []Field{
	Nombre, ApellidoPaterno, ApellidoMaterno, CURP, NSS, RFC, Email, Puesto,
	Area, Departamento, Turno, FechaNacimiento, FechaIngreso, Genero, Telefono,
	NumeroEmpleado,
}

// Fields returns the canonical fields in template column order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

var canonical = func() map[string]Field {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		m[string(f)] = f
	}
	return m
}()

var aliases = buildTable(map[string][]string{
	string(Nombre):          {"nombres", "nombre(s)", "name", "first name", "primer nombre"},
	string(ApellidoPaterno): {"apellido paterno", "paterno", "ap paterno", "primer apellido", "apellido", "apellido 1", "last name", "surname"},
	string(ApellidoMaterno): {"apellido materno", "materno", "ap materno", "segundo apellido", "apellido 2", "second surname"},
	string(CURP):            {"clave curp", "clave unica de registro de poblacion"},
	string(NSS):             {"imss", "numero seguro social", "numero de seguro social", "no seguro social", "seguro social", "social security number", "ssn"},
	string(RFC):             {"registro federal de contribuyentes", "tax id"},
	string(Email):           {"e-mail", "mail", "correo", "correo electronico", "email address"},
	string(Puesto):          {"cargo", "ocupacion", "puesto de trabajo", "job title", "position", "job"},
	string(Area):            {"área", "area de trabajo", "work area"},
	string(Departamento):    {"depto", "department", "dept"},
	string(Turno):           {"horario", "shift"},
	string(FechaNacimiento): {"fecha nacimiento", "fecha de nacimiento", "nacimiento", "f nacimiento", "birth date", "birthdate", "date of birth", "dob"},
	string(FechaIngreso):    {"fecha ingreso", "fecha de ingreso", "ingreso", "fecha alta", "fecha de alta", "hire date", "start date"},
	string(Genero):          {"género", "sexo", "gender", "sex"},
	string(Telefono):        {"teléfono", "tel", "celular", "movil", "phone", "phone number"},
	string(NumeroEmpleado):  {"numero empleado", "numero de empleado", "no empleado", "no. empleado", "num empleado", "clave empleado", "id empleado", "nomina", "employee number", "employee id"},
})

// buildTable normalizes every alias key once and maps each canonical name to
// itself.
func buildTable(src map[string][]string) map[string]Field {
	table := make(map[string]Field)
	for _, f := range fields {
		table[string(f)] = f
	}
	for target, keys := range src {
		f := canonical[target]
		for _, k := range keys {
			table[Normalize(k)] = f
		}
	}
	return table
}

// Normalize lowercases and trims a header, folds diacritics and joins the
// remaining words with underscores. "Apellido  Paterno", "apellido_paterno"
// and "APELLIDO-PATERNO" all normalize to "apellido_paterno".
func Normalize(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = foldDiacritics(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), "_")
}

func foldDiacritics(s string) string {
	// Chained transformers carry state; build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Resolve maps a header to its canonical field. The second result is false
// for headers that are not recognized; their values are dropped.
func Resolve(header string) (Field, bool) {
	key := Normalize(header)
	if key == "" {
		return "", false
	}
	if f, ok := aliases[key]; ok {
		return f, true
	}
	if f, ok := canonical[key]; ok {
		return f, true
	}
	return "", false
}
