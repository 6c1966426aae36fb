// internal/service/mocks_test.go
package service

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"finflow-transfer/internal/domain"
)

// MockWalletStore is a mock implementation of repository.WalletStore.
type MockWalletStore struct {
	mock.Mock
}

func (m *MockWalletStore) CreateWallet(ctx context.Context, wallet *domain.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockWalletStore) GetWalletByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletStore) CompareAndApplyDelta(ctx context.Context, id uuid.UUID, delta, minBalanceAfter decimal.Decimal) (*domain.Wallet, error) {
	args := m.Called(ctx, id, delta, minBalanceAfter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

// MockTransactionLog is a mock implementation of repository.TransactionLog.
type MockTransactionLog struct {
	mock.Mock
}

func (m *MockTransactionLog) Append(ctx context.Context, transaction *domain.Transaction) (uuid.UUID, error) {
	args := m.Called(ctx, transaction)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTransactionLog) ListByWallet(ctx context.Context, walletID uuid.UUID) iter.Seq2[domain.Transaction, error] {
	args := m.Called(ctx, walletID)
	return args.Get(0).(iter.Seq2[domain.Transaction, error])
}

// MockKafkaWriter is a mock implementation of KafkaWriter.
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

// decimalEq matches a decimal argument by value rather than representation.
func decimalEq(s string) any {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}
