// internal/api/router_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finflow-transfer/internal/api/handler"
	"finflow-transfer/internal/api/types"
	"finflow-transfer/internal/domain"
	"finflow-transfer/internal/fee"
	"finflow-transfer/internal/lock"
	"finflow-transfer/internal/repository/memory"
	"finflow-transfer/internal/service"
)

// newTestServer wires the full HTTP stack to in-memory stores.
func newTestServer(t *testing.T) (*httptest.Server, *memory.WalletRepository) {
	t.Helper()
	wallets := memory.NewWalletRepository()
	txLog := memory.NewTransactionRepository(wallets)
	locker := lock.NewLocalLocker()
	policy, err := fee.NewPercentagePolicy(fee.DefaultRate)
	require.NoError(t, err)

	transfers := service.NewTransferService(wallets, txLog, policy, locker, nil, service.DefaultEngineConfig())
	queries := service.NewQueryService(wallets, txLog, locker, time.Second)
	h := handler.NewWalletHandler(transfers, queries, zap.NewNop().Sugar())

	srv := httptest.NewServer(NewRouter(h, zap.NewNop().Sugar(), []string{"*"}))
	t.Cleanup(srv.Close)
	return srv, wallets
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTransferFlow(t *testing.T) {
	srv, wallets := newTestServer(t)
	ctx := context.Background()

	a := domain.NewWallet("alice", "KES")
	a.Balance = decimal.RequireFromString("100.00")
	b := domain.NewWallet("bob", "KES")
	b.Balance = decimal.RequireFromString("100.00")
	require.NoError(t, wallets.CreateWallet(ctx, a))
	require.NoError(t, wallets.CreateWallet(ctx, b))

	body, err := json.Marshal(types.TransferRequest{
		SenderWalletID:   a.ID,
		ReceiverWalletID: b.ID,
		Amount:           decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/transfers", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var transfer types.TransferResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&transfer))
	assert.True(t, transfer.Fee.Equal(decimal.RequireFromString("0.20")))

	balanceResp, err := http.Get(srv.URL + "/wallets/" + a.ID.String() + "/balance")
	require.NoError(t, err)
	defer balanceResp.Body.Close()
	var balance types.BalanceResponse
	require.NoError(t, json.NewDecoder(balanceResp.Body).Decode(&balance))
	assert.True(t, balance.Balance.Equal(decimal.RequireFromString("89.80")))

	historyResp, err := http.Get(srv.URL + "/wallets/" + b.ID.String() + "/transactions")
	require.NoError(t, err)
	defer historyResp.Body.Close()
	var history types.PaginatedResponse[domain.Transaction]
	require.NoError(t, json.NewDecoder(historyResp.Body).Decode(&history))
	require.Len(t, history.Data, 1)
	assert.Equal(t, transfer.TransactionID, history.Data[0].ID)

	// Self-transfer is rejected.
	body, err = json.Marshal(types.TransferRequest{SenderWalletID: a.ID, ReceiverWalletID: a.ID, Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	selfResp, err := http.Post(srv.URL+"/transfers", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer selfResp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, selfResp.StatusCode)
}

func TestLoggingMiddleware_RecordsStatus(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})
	rr := httptest.NewRecorder()
	LoggingMiddleware(zap.NewNop().Sugar())(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}
