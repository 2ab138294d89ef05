package finance

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// RepositoryPort abstracts ledger persistence.
type RepositoryPort interface {
	Stats(ctx context.Context) (Stats, error)
	ListPayments(ctx context.Context) ([]Payment, error)
	CreatePayment(ctx context.Context, in PaymentInput) (Payment, error)
	ListExpenses(ctx context.Context) ([]Expense, error)
	CreateExpense(ctx context.Context, in ExpenseInput) (Expense, error)
}

// Invalidator drops derived caches after ledger writes.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service coordinates finance operations.
type Service struct {
	repo   RepositoryPort
	cache  Invalidator
	logger *slog.Logger
}

// NewService builds Service. cache may be nil.
func NewService(repo RepositoryPort, cache Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Stats returns totals and the net profit.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("finance: stats: %w", err)
	}
	stats.NetProfit = math.Round((stats.TotalIncome-stats.TotalExpenses)*100) / 100
	return stats, nil
}

// Payments lists payments, newest first.
func (s *Service) Payments(ctx context.Context) ([]Payment, error) {
	return s.repo.ListPayments(ctx)
}

// Expenses lists expenses, newest first.
func (s *Service) Expenses(ctx context.Context) ([]Expense, error) {
	return s.repo.ListExpenses(ctx)
}

// RecordPayment validates and stores a payment.
func (s *Service) RecordPayment(ctx context.Context, in PaymentInput) (Payment, error) {
	if err := httpx.Validate(in); err != nil {
		return Payment{}, err
	}
	p, err := s.repo.CreatePayment(ctx, in)
	if err != nil {
		return Payment{}, err
	}
	s.invalidate(ctx)
	return p, nil
}

// RecordExpense validates and stores an expense.
func (s *Service) RecordExpense(ctx context.Context, in ExpenseInput) (Expense, error) {
	if err := httpx.Validate(in); err != nil {
		return Expense{}, err
	}
	x, err := s.repo.CreateExpense(ctx, in)
	if err != nil {
		return Expense{}, err
	}
	s.invalidate(ctx)
	return x, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("analytics cache bump failed", slog.Any("error", err))
	}
}
