package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUndefinedColumn = "42703"
	pgUndefinedTable  = "42P01"
	pgUniqueViolation = "23505"
)

// requiredAppointmentColumns exist in every deployed schema revision.
var requiredAppointmentColumns = []string{
	"id", "service_id", "customer_name", "phone",
	"appointment_date", "appointment_time", "status", "created_at",
}

var optionalAppointmentColumns = []string{
	"notes", "admin_notes", "saree_image", "fabric_type",
	"pleating_type", "waist_size", "pickup_method",
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

// classifyPgError maps driver errors onto the store's error taxonomy.
func classifyPgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedColumn, pgUndefinedTable:
			return fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
		case pgUniqueViolation:
			if pgErr.TableName == "services" {
				return fmt.Errorf("%w: %w", ErrServiceExists, err)
			}
			return fmt.Errorf("%w: %w", ErrDuplicateRecord, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return err
}

func appointmentFields(a *Appointment, columns []string) []any {
	fields := make([]any, 0, len(columns))
	for _, c := range columns {
		switch c {
		case "id":
			fields = append(fields, &a.ID)
		case "service_id":
			fields = append(fields, &a.ServiceID)
		case "customer_name":
			fields = append(fields, &a.CustomerName)
		case "phone":
			fields = append(fields, &a.Phone)
		case "appointment_date":
			fields = append(fields, &a.AppointmentDate)
		case "appointment_time":
			fields = append(fields, &a.AppointmentTime)
		case "status":
			fields = append(fields, &a.Status)
		case "created_at":
			fields = append(fields, &a.CreatedAt)
		case "notes":
			fields = append(fields, &a.Notes)
		case "admin_notes":
			fields = append(fields, &a.AdminNotes)
		case "saree_image":
			fields = append(fields, &a.SareeImage)
		case "fabric_type":
			fields = append(fields, &a.FabricType)
		case "pleating_type":
			fields = append(fields, &a.PleatingType)
		case "waist_size":
			fields = append(fields, &a.WaistSize)
		case "pickup_method":
			fields = append(fields, &a.PickupMethod)
		}
	}
	return fields
}

// insertColumns lists the required columns plus every optional column that
// carries a value, so an older schema only rejects records that use it.
func insertColumns(a Appointment) ([]string, []any) {
	cols := append([]string(nil), requiredAppointmentColumns...)
	args := []any{
		a.ID, a.ServiceID, a.CustomerName, a.Phone,
		a.AppointmentDate, a.AppointmentTime, string(a.Status), a.CreatedAt,
	}

	optional := []struct {
		col string
		val string
	}{
		{"notes", a.Notes},
		{"admin_notes", a.AdminNotes},
		{"saree_image", a.SareeImage},
		{"fabric_type", a.FabricType},
		{"pleating_type", a.PleatingType},
		{"waist_size", a.WaistSize},
		{"pickup_method", a.PickupMethod},
	}
	for _, o := range optional {
		if o.val != "" {
			cols = append(cols, o.col)
			args = append(args, o.val)
		}
	}
	return cols, args
}

func placeholders(n int) string {
	p := make([]string, n)
	for i := range p {
		p[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(p, ", ")
}

func coalesced(columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		if c == "created_at" {
			out[i] = c
			continue
		}
		out[i] = "COALESCE(" + c + ", '')"
	}
	return strings.Join(out, ", ")
}

// Interface methods

func (r *PgRepository) Ping(ctx context.Context) error {
	return classifyPgError(r.pool.Ping(ctx))
}

func (r *PgRepository) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), COALESCE(image, ''), COALESCE(price_range, ''), status
		FROM services
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, classifyPgError(err)
	}
	defer rows.Close()

	result := make([]Service, 0)
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Image, &s.PriceRange, &s.Status); err != nil {
			return nil, classifyPgError(err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPgError(err)
	}
	return result, nil
}

func (r *PgRepository) CreateService(ctx context.Context, svc Service) (Service, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, name, description, image, price_range, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, svc.ID, svc.Name, svc.Description, svc.Image, svc.PriceRange, string(svc.Status))
	if err != nil {
		return Service{}, classifyPgError(err)
	}
	return svc, nil
}

func (r *PgRepository) UpdateService(ctx context.Context, svc Service) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE services
		SET name = $2,
		    description = $3,
		    image = $4,
		    price_range = $5,
		    status = $6
		WHERE id = $1
	`, svc.ID, svc.Name, svc.Description, svc.Image, svc.PriceRange, string(svc.Status))
	return classifyPgError(err)
}

func (r *PgRepository) DeleteService(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	return classifyPgError(err)
}

// ListAppointments reads the full row set. Against a schema without the
// optional columns it falls back to the required ones.
func (r *PgRepository) ListAppointments(ctx context.Context) ([]Appointment, error) {
	full := append(append([]string(nil), requiredAppointmentColumns...), optionalAppointmentColumns...)
	appts, err := r.listAppointments(ctx, full)
	if errors.Is(err, ErrSchemaMismatch) {
		return r.listAppointments(ctx, requiredAppointmentColumns)
	}
	return appts, err
}

func (r *PgRepository) listAppointments(ctx context.Context, columns []string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+coalesced(columns)+`
		FROM appointments
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, classifyPgError(err)
	}
	defer rows.Close()

	result := make([]Appointment, 0)
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(appointmentFields(&a, columns)...); err != nil {
			return nil, classifyPgError(err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPgError(err)
	}
	return result, nil
}

func (r *PgRepository) InsertAppointment(ctx context.Context, appt Appointment) (Appointment, error) {
	cols, args := insertColumns(appt)

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (`+strings.Join(cols, ", ")+`)
		VALUES (`+placeholders(len(cols))+`)
		RETURNING `+coalesced(cols), args...)

	var saved Appointment
	if err := row.Scan(appointmentFields(&saved, cols)...); err != nil {
		return Appointment{}, classifyPgError(err)
	}
	return saved, nil
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, id string, upd AppointmentUpdate) error {
	if upd.Empty() {
		return nil
	}

	sets := make([]string, 0, 2)
	args := []any{id}
	if upd.Status != nil {
		args = append(args, string(*upd.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if upd.AdminNotes != nil {
		args = append(args, *upd.AdminNotes)
		sets = append(sets, fmt.Sprintf("admin_notes = $%d", len(args)))
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
	`, args...)
	return classifyPgError(err)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	return classifyPgError(err)
}
