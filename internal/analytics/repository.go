package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository runs dashboard aggregates against PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PgRepository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// MonthlyRevenue sums payments per month of [from, to) in time zone tz.
func (r *PgRepository) MonthlyRevenue(ctx context.Context, from, to time.Time, tz string) ([]MonthAmount, error) {
	rows, err := r.pool.Query(ctx, `SELECT EXTRACT(MONTH FROM date AT TIME ZONE $3)::int AS month, SUM(amount)::float8
FROM payments
WHERE date >= $1 AND date < $2
GROUP BY month
ORDER BY month`, from, to, tz)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MonthAmount
	for rows.Next() {
		var m MonthAmount
		if err := rows.Scan(&m.Month, &m.Amount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// EventsByType counts events per type.
func (r *PgRepository) EventsByType(ctx context.Context) ([]TypeCount, error) {
	return r.countBy(ctx, `SELECT COALESCE(type, ''), COUNT(*)::int FROM events GROUP BY 1`)
}

// ClientsByType counts clients per CRM type.
func (r *PgRepository) ClientsByType(ctx context.Context) ([]TypeCount, error) {
	return r.countBy(ctx, `SELECT type, COUNT(*)::int FROM clients GROUP BY type ORDER BY type`)
}

// ActiveProjects counts events that are neither cancelled nor completed.
func (r *PgRepository) ActiveProjects(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*)::int FROM events WHERE status NOT IN ('CANCELLED', 'COMPLETED')`).Scan(&n)
	return n, err
}

// PendingLeads counts clients still in the LEAD stage.
func (r *PgRepository) PendingLeads(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*)::int FROM clients WHERE type = 'LEAD'`).Scan(&n)
	return n, err
}

func (r *PgRepository) countBy(ctx context.Context, sql string) ([]TypeCount, error) {
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TypeCount
	for rows.Next() {
		var c TypeCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
