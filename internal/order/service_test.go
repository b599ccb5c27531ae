package order

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByExtOrderID(ctx context.Context, extOrderID string) (*Order, error) {
	args := m.Called(ctx, extOrderID)
	if o := args.Get(0); o != nil {
		return o.(*Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) UpdatePaymentState(ctx context.Context, extOrderID string, state State, paymentReference string) error {
	args := m.Called(ctx, extOrderID, state, paymentReference)
	return args.Error(0)
}

func TestService_ApplyPaymentStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Commits pending order", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("GetByExtOrderID", ctx, "ord-1").Return(&Order{ExtOrderID: "ord-1", State: StatePending}, nil)
		repo.On("UpdatePaymentState", ctx, "ord-1", StateCommitted, "PAYU-1").Return(nil)

		err := svc.ApplyPaymentStatus(ctx, "ord-1", StateCommitted, "PAYU-1")
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Aborts pending order", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("GetByExtOrderID", ctx, "ord-1").Return(&Order{ExtOrderID: "ord-1", State: StatePending}, nil)
		repo.On("UpdatePaymentState", ctx, "ord-1", StateAborted, "PAYU-1").Return(nil)

		err := svc.ApplyPaymentStatus(ctx, "ord-1", StateAborted, "PAYU-1")
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Same state is a no-op", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("GetByExtOrderID", ctx, "ord-1").Return(&Order{ExtOrderID: "ord-1", State: StateCommitted}, nil)

		err := svc.ApplyPaymentStatus(ctx, "ord-1", StateCommitted, "PAYU-1")
		assert.NoError(t, err)
		repo.AssertNotCalled(t, "UpdatePaymentState")
	})

	t.Run("Committed is never downgraded", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("GetByExtOrderID", ctx, "ord-1").Return(&Order{ExtOrderID: "ord-1", State: StateCommitted}, nil)

		err := svc.ApplyPaymentStatus(ctx, "ord-1", StateAborted, "PAYU-1")
		assert.ErrorIs(t, err, ErrStateDowngraded)
		repo.AssertNotCalled(t, "UpdatePaymentState")
	})

	t.Run("Aborted order can still be committed", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("GetByExtOrderID", ctx, "ord-1").Return(&Order{ExtOrderID: "ord-1", State: StateAborted}, nil)
		repo.On("UpdatePaymentState", ctx, "ord-1", StateCommitted, "PAYU-2").Return(nil)

		err := svc.ApplyPaymentStatus(ctx, "ord-1", StateCommitted, "PAYU-2")
		assert.NoError(t, err)
	})

	t.Run("Rejects non-terminal state", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		err := svc.ApplyPaymentStatus(ctx, "ord-1", StatePending, "PAYU-1")
		assert.ErrorIs(t, err, ErrInvalidState)
		repo.AssertNotCalled(t, "GetByExtOrderID")
	})

	t.Run("Order not found", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("GetByExtOrderID", ctx, "missing").Return(nil, ErrOrderNotFound)

		err := svc.ApplyPaymentStatus(ctx, "missing", StateCommitted, "PAYU-1")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("Update error is returned", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("GetByExtOrderID", ctx, "ord-1").Return(&Order{ExtOrderID: "ord-1", State: StatePending}, nil)
		repo.On("UpdatePaymentState", ctx, "ord-1", StateCommitted, "PAYU-1").Return(errors.New("db down"))

		err := svc.ApplyPaymentStatus(ctx, "ord-1", StateCommitted, "PAYU-1")
		assert.EqualError(t, err, "db down")
	})
}
