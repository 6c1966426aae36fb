// internal/api/handler/wallet.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"finflow-transfer/internal/api/types"
	"finflow-transfer/internal/domain"
	"finflow-transfer/internal/service"
	"finflow-transfer/internal/util"
)

// DefaultTimeout bounds the handling of a single request.
const DefaultTimeout = 30 * time.Second

// Default and maximum page sizes for transaction history.
const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = service.MaxHistoryLimit
)

// WalletHandler handles HTTP requests for transfers and wallet queries.
type WalletHandler struct {
	transfers service.TransferService
	queries   service.QueryService
	logger    *zap.SugaredLogger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(transfers service.TransferService, queries service.QueryService, logger *zap.SugaredLogger) *WalletHandler {
	return &WalletHandler{
		transfers: transfers,
		queries:   queries,
		logger:    logger,
	}
}

// Helper function to send JSON responses.
func (h *WalletHandler) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Errorw("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps an error kind to a status code. txn is the committed
// transaction when the engine moved money but failed to record it.
func (h *WalletHandler) respondWithError(w http.ResponseWriter, err error, txn *domain.Transaction) {
	kind := util.KindOf(err)
	body := types.ErrorResponse{Error: kind.String(), Message: err.Error()}
	statusCode := http.StatusInternalServerError

	switch kind {
	case util.KindInvalidRequest, util.KindInsufficientFunds:
		statusCode = http.StatusBadRequest
	case util.KindWalletNotFound:
		statusCode = http.StatusNotFound
	default:
		h.logger.Errorw("Unhandled service error", "error", err)
		body.Error = util.KindStorage.String()
		body.Message = "Internal server error"
	}
	if txn != nil {
		body.TransactionID = &txn.ID
	}

	h.respondWithJSON(w, statusCode, body)
}

func (h *WalletHandler) walletID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "walletID"))
	if err != nil {
		return uuid.Nil, util.NewTransferError("parse wallet id", util.KindInvalidRequest, err)
	}
	return id, nil
}

// Transfer handles the transfer money request.
// POST /transfers
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req types.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.NewTransferError("decode transfer request", util.KindInvalidRequest, err), nil)
		return
	}

	txn, err := h.transfers.Transfer(r.Context(), service.TransferRequest{
		SenderWalletID:   req.SenderWalletID,
		ReceiverWalletID: req.ReceiverWalletID,
		Amount:           req.Amount,
		Description:      req.Description,
	})
	if err != nil {
		h.respondWithError(w, err, txn)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.TransferResponse{
		TransactionID:    txn.ID,
		SenderWalletID:   txn.SenderWalletID,
		ReceiverWalletID: txn.ReceiverWalletID,
		Amount:           txn.Amount,
		Fee:              txn.Fee,
		Currency:         txn.Currency,
		Description:      txn.Description,
		Status:           string(txn.Status),
		CreatedAt:        txn.CreatedAt,
	})
}

// GetWalletBalance handles the get wallet balance request.
// GET /wallets/{walletID}/balance
func (h *WalletHandler) GetWalletBalance(w http.ResponseWriter, r *http.Request) {
	walletID, err := h.walletID(r)
	if err != nil {
		h.respondWithError(w, err, nil)
		return
	}

	wallet, err := h.queries.GetBalance(r.Context(), walletID)
	if err != nil {
		h.respondWithError(w, err, nil)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.BalanceResponse{
		WalletID:  wallet.ID,
		Balance:   wallet.Balance,
		Currency:  wallet.Currency,
		UpdatedAt: wallet.UpdatedAt,
	})
}

// GetTransactionHistory handles the get transaction history request.
// GET /wallets/{walletID}/transactions
func (h *WalletHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	walletID, err := h.walletID(r)
	if err != nil {
		h.respondWithError(w, err, nil)
		return
	}

	// Parse query parameters for pagination
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	transactions, hasMore, err := h.queries.GetTransactionHistory(r.Context(), walletID, limit, offset)
	if err != nil {
		h.respondWithError(w, err, nil)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:    transactions,
		Limit:   limit,
		Offset:  offset,
		HasMore: hasMore,
	})
}
