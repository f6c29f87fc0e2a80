package types

// FileData is a decoded upload: the header row and every non-blank data row
// beneath it, cells in source order. Lines[i] is the 1-based source line or
// sheet row of Rows[i].
type FileData struct {
	Name      string
	Headers   []string
	Rows      [][]string
	Lines     []int
	HeaderRow int
}

// ParsedRow is one normalized, validated worker record. Row is the 1-based
// line (CSV) or sheet row (spreadsheet) the record came from.
type ParsedRow struct {
	Row int `json:"row"`

	Nombre          string `json:"nombre,omitempty"`
	ApellidoPaterno string `json:"apellido_paterno,omitempty"`
	ApellidoMaterno string `json:"apellido_materno,omitempty"`
	CURP            string `json:"curp,omitempty"`
	NSS             string `json:"nss,omitempty"`
	RFC             string `json:"rfc,omitempty"`
	Email           string `json:"email,omitempty"`
	Puesto          string `json:"puesto,omitempty"`
	Area            string `json:"area,omitempty"`
	Departamento    string `json:"departamento,omitempty"`
	Turno           string `json:"turno,omitempty"`
	FechaNacimiento string `json:"fecha_nacimiento,omitempty"`
	FechaIngreso    string `json:"fecha_ingreso,omitempty"`
	Genero          string `json:"genero,omitempty"`
	Telefono        string `json:"telefono,omitempty"`
	NumeroEmpleado  string `json:"numero_empleado,omitempty"`

	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// FullName joins the name parts that are present.
func (r ParsedRow) FullName() string {
	name := r.Nombre
	for _, part := range []string{r.ApellidoPaterno, r.ApellidoMaterno} {
		if part == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += part
	}
	return name
}

type Summary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

type ImportFailure struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult is the tally of a commit run. Success+Failed equals the number
// of valid rows attempted; Skipped counts rows never started because the run
// was cancelled.
type ImportResult struct {
	Success  int             `json:"success"`
	Failed   int             `json:"failed"`
	Skipped  int             `json:"skipped"`
	Failures []ImportFailure `json:"failures,omitempty"`
}
