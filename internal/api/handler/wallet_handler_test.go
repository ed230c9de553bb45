package handler

import (
	"fmt"
	"lora-lending/internal/api/handler/dto"
	"lora-lending/internal/domain/wallet"
	"lora-lending/internal/pkg/apperrors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWalletHandlerGetWallet(t *testing.T) {
	svc := new(MockWalletService)
	svc.On("GetWallet", mock.Anything, int64(7)).Return(&wallet.Wallet{BorrowerID: 7, Balance: d("1250.5")}, nil)

	rec := httptest.NewRecorder()
	NewWalletHandler(svc, logger).GetWallet(rec, newRequest(t, http.MethodGet, "/borrowers/7/wallet", nil, "borrowerID", "7"))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[dto.WalletResponse](t, rec)
	assert.Equal(t, "1250.50", resp.Balance)
	svc.AssertExpectations(t)
}

func TestWalletHandlerCashIn(t *testing.T) {
	t.Run("card top-up", func(t *testing.T) {
		svc := new(MockWalletService)
		svc.On("CashIn", mock.Anything, int64(7), amountOf("1000"), wallet.MethodCard).Return(&wallet.Transaction{
			ID:           uuid.New(),
			BorrowerID:   7,
			Type:         wallet.TypeCashIn,
			Amount:       d("1000"),
			Fee:          d("20"),
			Method:       wallet.MethodCard,
			BalanceAfter: d("980"),
		}, nil)

		rec := httptest.NewRecorder()
		NewWalletHandler(svc, logger).CashIn(rec, newRequest(t, http.MethodPost, "/borrowers/7/wallet/cash-in",
			dto.CashInRequest{Amount: "1000", Method: "card"}, "borrowerID", "7"))

		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeBody[dto.TransactionResponse](t, rec)
		assert.Equal(t, "Cash In", resp.Title)
		assert.Equal(t, "20.00", resp.Fee)
		assert.Equal(t, "980.00", resp.BalanceAfter)
		svc.AssertExpectations(t)
	})

	t.Run("bad amount", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewWalletHandler(new(MockWalletService), logger).CashIn(rec, newRequest(t, http.MethodPost, "/borrowers/7/wallet/cash-in",
			dto.CashInRequest{Amount: "a lot", Method: "CARD"}, "borrowerID", "7"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "amount", decodeBody[dto.ErrorResponse](t, rec).Error.Field)
	})
}

func TestWalletHandlerListTransactions(t *testing.T) {
	svc := new(MockWalletService)
	handler := NewWalletHandler(svc, logger)

	t.Run("default limit", func(t *testing.T) {
		svc.On("ListTransactions", mock.Anything, int64(7), wallet.DefaultTransactionLimit).Return([]*wallet.Transaction{}, nil).Once()

		rec := httptest.NewRecorder()
		handler.ListTransactions(rec, newRequest(t, http.MethodGet, "/borrowers/7/wallet/transactions", nil, "borrowerID", "7"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeBody[[]dto.TransactionResponse](t, rec))
	})

	t.Run("explicit limit", func(t *testing.T) {
		svc.On("ListTransactions", mock.Anything, int64(7), 5).Return([]*wallet.Transaction{
			{ID: uuid.New(), Type: wallet.TypeDisbursement, Amount: d("9250"), Fee: d("0"), Method: wallet.MethodDisbursement, BalanceAfter: d("9250")},
		}, nil).Once()

		rec := httptest.NewRecorder()
		handler.ListTransactions(rec, newRequest(t, http.MethodGet, "/borrowers/7/wallet/transactions?limit=5", nil, "borrowerID", "7"))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[[]dto.TransactionResponse](t, rec)
		require.Len(t, resp, 1)
		assert.Equal(t, "Loan Disbursement", resp[0].Title)
	})

	t.Run("limit out of range", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ListTransactions(rec, newRequest(t, http.MethodGet, "/borrowers/7/wallet/transactions?limit=1000", nil, "borrowerID", "7"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	svc.AssertExpectations(t)
}

func TestWalletHandlerTransfer(t *testing.T) {
	target := "/borrowers/7/wallet/transfers"

	t.Run("confirmed transfer", func(t *testing.T) {
		svc := new(MockWalletService)
		svc.On("Transfer", mock.Anything, int64(7), amountOf("1250.50"), "0123456789", "Rent").Return(&wallet.Transaction{
			ID:           uuid.New(),
			BorrowerID:   7,
			Type:         wallet.TypeTransfer,
			Amount:       d("1250.50"),
			Fee:          d("0"),
			Method:       wallet.MethodBank,
			Reference:    "0123456789",
			Note:         "Rent",
			BalanceAfter: d("749.50"),
		}, nil)

		rec := httptest.NewRecorder()
		NewWalletHandler(svc, logger).Transfer(rec, newRequest(t, http.MethodPost, target,
			dto.TransferRequest{Amount: "1,250.50", AccountNumber: "0123456789", Note: "Rent", Confirm: true}, "borrowerID", "7"))

		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeBody[dto.TransactionResponse](t, rec)
		assert.Equal(t, "Transfer", resp.Title)
		assert.Equal(t, "0123456789", resp.Reference)
		assert.Equal(t, "749.50", resp.BalanceAfter)
		svc.AssertExpectations(t)
	})

	t.Run("unconfirmed", func(t *testing.T) {
		svc := new(MockWalletService)
		rec := httptest.NewRecorder()
		NewWalletHandler(svc, logger).Transfer(rec, newRequest(t, http.MethodPost, target,
			dto.TransferRequest{Amount: "100", AccountNumber: "0123456789"}, "borrowerID", "7"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "confirm", decodeBody[dto.ErrorResponse](t, rec).Error.Field)
		svc.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("short account number", func(t *testing.T) {
		svc := new(MockWalletService)
		svc.On("Transfer", mock.Anything, int64(7), amountOf("100"), "12345", "").
			Return(nil, apperrors.NewValidationError("accountNumber", "Account number must be at least 10 digits"))

		rec := httptest.NewRecorder()
		NewWalletHandler(svc, logger).Transfer(rec, newRequest(t, http.MethodPost, target,
			dto.TransferRequest{Amount: "100", AccountNumber: "12345", Confirm: true}, "borrowerID", "7"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody[dto.ErrorResponse](t, rec)
		assert.Equal(t, "accountNumber", body.Error.Field)
		assert.Equal(t, "Account number must be at least 10 digits", body.Error.Message)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		svc := new(MockWalletService)
		svc.On("Transfer", mock.Anything, int64(7), amountOf("5000"), "0123456789", "").
			Return(nil, fmt.Errorf("%w: balance 10.00 is less than 5000.00", apperrors.ErrInsufficientBalance))

		rec := httptest.NewRecorder()
		NewWalletHandler(svc, logger).Transfer(rec, newRequest(t, http.MethodPost, target,
			dto.TransferRequest{Amount: "5000", AccountNumber: "0123456789", Confirm: true}, "borrowerID", "7"))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
