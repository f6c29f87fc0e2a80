package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Migrate creates the trabajadores table and its indexes if missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateWorker(ctx context.Context, w *Worker) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.Status == "" {
		w.Status = StatusActive
	}
	w.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO trabajadores (
			id, organization_id, site_id,
			nombre, apellido_paterno, apellido_materno,
			curp, nss, rfc, email,
			puesto, area, departamento, turno,
			fecha_nacimiento, fecha_ingreso, genero, telefono, numero_empleado,
			status, created_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17, $18, $19,
			$20, $21
		)`,
		w.ID, w.OrganizationID, w.SiteID,
		w.Nombre, w.ApellidoPaterno, nullableText(w.ApellidoMaterno),
		nullableText(w.CURP), nullableText(w.NSS), nullableText(w.RFC), nullableText(w.Email),
		w.Puesto, nullableText(w.Area), nullableText(w.Departamento), nullableText(w.Turno),
		nullableText(w.FechaNacimiento), nullableText(w.FechaIngreso), nullableText(w.Genero),
		nullableText(w.Telefono), nullableText(w.NumeroEmpleado),
		w.Status, w.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateWorker, pgErr.ConstraintName)
		}
		return fmt.Errorf("insert worker: %w", err)
	}
	return nil
}

// CountByOrganization returns how many workers an organization has.
func (r *PostgresRepository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trabajadores WHERE organization_id = $1`, orgID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count workers: %w", err)
	}
	return total, nil
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
