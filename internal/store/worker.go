// Package store persists imported workers.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nconklindev/workerimport/internal/types"
)

// StatusActive is the status every imported worker starts in.
const StatusActive = "activo"

var ErrDuplicateWorker = errors.New("worker already exists")

// Worker is the create payload for one roster row.
type Worker struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	SiteID         *uuid.UUID

	Nombre          string
	ApellidoPaterno string
	ApellidoMaterno string
	CURP            string
	NSS             string
	RFC             string
	Email           string
	Puesto          string
	Area            string
	Departamento    string
	Turno           string
	FechaNacimiento string
	FechaIngreso    string
	Genero          string
	Telefono        string
	NumeroEmpleado  string

	Status    string
	CreatedAt time.Time
}

func WorkerFromRow(orgID uuid.UUID, siteID *uuid.UUID, row types.ParsedRow) *Worker {
	return &Worker{
		OrganizationID:  orgID,
		SiteID:          siteID,
		Nombre:          row.Nombre,
		ApellidoPaterno: row.ApellidoPaterno,
		ApellidoMaterno: row.ApellidoMaterno,
		CURP:            row.CURP,
		NSS:             row.NSS,
		RFC:             row.RFC,
		Email:           row.Email,
		Puesto:          row.Puesto,
		Area:            row.Area,
		Departamento:    row.Departamento,
		Turno:           row.Turno,
		FechaNacimiento: row.FechaNacimiento,
		FechaIngreso:    row.FechaIngreso,
		Genero:          row.Genero,
		Telefono:        row.Telefono,
		NumeroEmpleado:  row.NumeroEmpleado,
		Status:          StatusActive,
	}
}
