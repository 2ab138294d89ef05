package finance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const foreignKeyViolation = "23503"

// Repository persists the ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Stats aggregates income and expense totals in one round trip.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `SELECT
	(SELECT COALESCE(SUM(amount), 0)::float8 FROM payments),
	(SELECT COALESCE(SUM(amount), 0)::float8 FROM expenses),
	(SELECT COALESCE(SUM(amount), 0)::float8 FROM payments WHERE status = $1),
	(SELECT COALESCE(SUM(amount), 0)::float8 FROM expenses WHERE status = $1)`, StatusPending).
		Scan(&s.TotalIncome, &s.TotalExpenses, &s.PendingIncome, &s.PendingExpenses)
	return s, err
}

// ListPayments returns payments with event and client names, newest first.
func (r *Repository) ListPayments(ctx context.Context) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.event_id, e.name, COALESCE(TRIM(c.first_name || ' ' || c.last_name), ''),
p.amount, p.method, p.status, p.reference, p.date
FROM payments p
JOIN events e ON e.id = p.event_id
LEFT JOIN clients c ON c.id = e.client_id
ORDER BY p.date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	payments := []Payment{}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.EventID, &p.EventName, &p.ClientName, &p.Amount, &p.Method, &p.Status, &p.Reference, &p.Date); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// CreatePayment inserts a payment.
func (r *Repository) CreatePayment(ctx context.Context, in PaymentInput) (Payment, error) {
	p := Payment{EventID: in.EventID, Amount: in.Amount, Method: in.Method, Status: in.Status, Reference: in.Reference}
	err := r.pool.QueryRow(ctx, `INSERT INTO payments (event_id, amount, method, status, reference)
VALUES ($1, $2, $3, $4, $5) RETURNING id, date`, in.EventID, in.Amount, in.Method, in.Status, in.Reference).Scan(&p.ID, &p.Date)
	if isForeignKeyViolation(err) {
		return Payment{}, ErrEventNotFound
	}
	return p, err
}

// ListExpenses returns expenses with supplier names, newest first.
func (r *Repository) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := r.pool.Query(ctx, `SELECT x.id, x.supplier_id, COALESCE(s.name, ''), x.description, x.amount, x.category, x.status, x.date
FROM expenses x
LEFT JOIN suppliers s ON s.id = x.supplier_id
ORDER BY x.date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	expenses := []Expense{}
	for rows.Next() {
		var x Expense
		if err := rows.Scan(&x.ID, &x.SupplierID, &x.SupplierName, &x.Description, &x.Amount, &x.Category, &x.Status, &x.Date); err != nil {
			return nil, err
		}
		expenses = append(expenses, x)
	}
	return expenses, rows.Err()
}

// CreateExpense inserts an expense.
func (r *Repository) CreateExpense(ctx context.Context, in ExpenseInput) (Expense, error) {
	x := Expense{SupplierID: in.SupplierID, Description: in.Description, Amount: in.Amount, Category: in.Category, Status: in.Status}
	err := r.pool.QueryRow(ctx, `INSERT INTO expenses (supplier_id, description, amount, category, status)
VALUES ($1, $2, $3, $4, $5) RETURNING id, date`, in.SupplierID, in.Description, in.Amount, in.Category, in.Status).Scan(&x.ID, &x.Date)
	if isForeignKeyViolation(err) {
		return Expense{}, ErrSupplierNotFound
	}
	return x, err
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
