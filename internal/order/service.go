package order

import (
	"context"
	"fmt"

	"payu-adapter/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	GetByExtOrderID(ctx context.Context, extOrderID string) (*Order, error)
	// ApplyPaymentStatus persists the terminal state a payment provider
	// reported for the order.
	ApplyPaymentStatus(ctx context.Context, extOrderID string, state State, paymentReference string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByExtOrderID(ctx context.Context, extOrderID string) (*Order, error) {
	return s.repo.GetByExtOrderID(ctx, extOrderID)
}

func (s *service) ApplyPaymentStatus(ctx context.Context, extOrderID string, state State, paymentReference string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("ext_order_id", extOrderID),
		zap.String("state", string(state)),
		zap.String("payment_reference", paymentReference),
	)

	if !state.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrInvalidState, state)
	}

	o, err := s.repo.GetByExtOrderID(ctx, extOrderID)
	if err != nil {
		return err
	}

	switch {
	case o.State == state:
		log.Info("order already in requested state")
		return nil
	case o.State == StateCommitted:
		// A late ABORTED notification must not undo a settled payment.
		log.Warn("refusing to downgrade committed order")
		return ErrStateDowngraded
	}

	if err := s.repo.UpdatePaymentState(ctx, extOrderID, state, paymentReference); err != nil {
		log.Error("failed to persist payment state", zap.Error(err))
		return err
	}

	log.Info("order payment state updated")
	return nil
}
