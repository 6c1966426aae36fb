// internal/api/handler/wallet_test.go
package handler

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finflow-transfer/internal/api/types"
	"finflow-transfer/internal/domain"
	"finflow-transfer/internal/service"
	"finflow-transfer/internal/util"
)

// MockTransferService is a mock implementation of service.TransferService.
type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) Transfer(ctx context.Context, req service.TransferRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// MockQueryService is a mock implementation of service.QueryService.
type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) GetBalance(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockQueryService) GetHistory(ctx context.Context, walletID uuid.UUID) (iter.Seq2[domain.Transaction, error], error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(iter.Seq2[domain.Transaction, error]), args.Error(1)
}

func (m *MockQueryService) GetTransactionHistory(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transaction, bool, error) {
	args := m.Called(ctx, walletID, limit, offset)
	return args.Get(0).([]domain.Transaction), args.Bool(1), args.Error(2)
}

func newTestRouter(h *WalletHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/transfers", h.Transfer)
	r.Get("/wallets/{walletID}/balance", h.GetWalletBalance)
	r.Get("/wallets/{walletID}/transactions", h.GetTransactionHistory)
	return r
}

func setup() (*MockTransferService, *MockQueryService, http.Handler) {
	transfers := new(MockTransferService)
	queries := new(MockQueryService)
	h := NewWalletHandler(transfers, queries, zap.NewNop().Sugar())
	return transfers, queries, newTestRouter(h)
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestTransfer_Success(t *testing.T) {
	transfers, _, router := setup()
	sender, receiver := uuid.New(), uuid.New()
	txn := domain.NewTransaction(sender, receiver, decimal.RequireFromString("10.00"), decimal.RequireFromString("0.20"), "KES", "rent")
	require.NoError(t, txn.Complete())

	transfers.On("Transfer", mock.Anything, mock.MatchedBy(func(req service.TransferRequest) bool {
		return req.SenderWalletID == sender && req.ReceiverWalletID == receiver &&
			req.Amount.Equal(decimal.RequireFromString("10.00")) && req.Description == "rent"
	})).Return(txn, nil).Once()

	body := `{"sender_wallet_id":"` + sender.String() + `","receiver_wallet_id":"` + receiver.String() + `","amount":"10.00","description":"rent"}`
	rr := doRequest(t, router, http.MethodPost, "/transfers", body)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp types.TransferResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, txn.ID, resp.TransactionID)
	assert.True(t, resp.Fee.Equal(decimal.RequireFromString("0.20")))
	assert.Equal(t, "COMPLETED", resp.Status)
	transfers.AssertExpectations(t)
}

func TestTransfer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"InvalidRequest", util.NewTransferError("transfer", util.KindInvalidRequest, util.ErrSameWalletTransfer), http.StatusBadRequest, "InvalidRequest"},
		{"InsufficientFunds", util.NewTransferError("transfer", util.KindInsufficientFunds, util.ErrInsufficientFunds), http.StatusBadRequest, "InsufficientFunds"},
		{"WalletNotFound", util.NewTransferError("transfer", util.KindWalletNotFound, util.ErrWalletNotFound), http.StatusNotFound, "WalletNotFound"},
		{"Storage", util.NewTransferError("transfer", util.KindStorage, util.ErrStorage), http.StatusInternalServerError, "StorageError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transfers, _, router := setup()
			transfers.On("Transfer", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			body := `{"sender_wallet_id":"` + uuid.NewString() + `","receiver_wallet_id":"` + uuid.NewString() + `","amount":"1"}`
			rr := doRequest(t, router, http.MethodPost, "/transfers", body)

			assert.Equal(t, tt.wantCode, rr.Code)
			var resp types.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantKind, resp.Error)
			assert.Nil(t, resp.TransactionID)
		})
	}
}

func TestTransfer_UnrecordedTransactionIsReported(t *testing.T) {
	transfers, _, router := setup()
	txn := domain.NewTransaction(uuid.New(), uuid.New(), decimal.NewFromInt(1), decimal.Zero, "KES", "")
	require.NoError(t, txn.Complete())
	transfers.On("Transfer", mock.Anything, mock.Anything).
		Return(txn, util.NewTransferError("transfer", util.KindStorage, util.ErrStorage)).Once()

	rr := doRequest(t, router, http.MethodPost, "/transfers",
		`{"sender_wallet_id":"`+txn.SenderWalletID.String()+`","receiver_wallet_id":"`+txn.ReceiverWalletID.String()+`","amount":"1"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.TransactionID)
	assert.Equal(t, txn.ID, *resp.TransactionID)
}

func TestTransfer_MalformedBody(t *testing.T) {
	transfers, _, router := setup()
	rr := doRequest(t, router, http.MethodPost, "/transfers", `{"amount":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	transfers.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
}

func TestGetWalletBalance(t *testing.T) {
	_, queries, router := setup()
	w := domain.NewWallet("owner", "KES")
	w.Balance = decimal.RequireFromString("89.80")
	queries.On("GetBalance", mock.Anything, w.ID).Return(w, nil).Once()
	missing := uuid.New()
	queries.On("GetBalance", mock.Anything, missing).
		Return(nil, util.NewTransferError("get balance", util.KindWalletNotFound, util.ErrWalletNotFound)).Once()

	rr := doRequest(t, router, http.MethodGet, "/wallets/"+w.ID.String()+"/balance", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp types.BalanceResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, w.ID, resp.WalletID)
	assert.True(t, resp.Balance.Equal(w.Balance))

	rr = doRequest(t, router, http.MethodGet, "/wallets/"+missing.String()+"/balance", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(t, router, http.MethodGet, "/wallets/not-a-uuid/balance", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetTransactionHistory_Paging(t *testing.T) {
	_, queries, router := setup()
	id := uuid.New()
	page := []domain.Transaction{*domain.NewTransaction(id, uuid.New(), decimal.NewFromInt(1), decimal.Zero, "KES", "")}

	queries.On("GetTransactionHistory", mock.Anything, id, defaultHistoryLimit, 0).Return(page, true, nil).Once()
	queries.On("GetTransactionHistory", mock.Anything, id, maxHistoryLimit, 5).Return([]domain.Transaction{}, false, nil).Once()

	rr := doRequest(t, router, http.MethodGet, "/wallets/"+id.String()+"/transactions", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp types.PaginatedResponse[domain.Transaction]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.True(t, resp.HasMore)
	assert.Equal(t, defaultHistoryLimit, resp.Limit)

	rr = doRequest(t, router, http.MethodGet, "/wallets/"+id.String()+"/transactions?limit=1000&offset=5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, maxHistoryLimit, resp.Limit)
	assert.Equal(t, 5, resp.Offset)
	assert.False(t, resp.HasMore)

	queries.AssertExpectations(t)
}
