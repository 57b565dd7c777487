package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviplace/serviplace-backend/pkg/enums"
	pkgerrors "github.com/serviplace/serviplace-backend/pkg/errors"
)

func TestProcessPayment(t *testing.T) {
	var gotAuth string
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		var req ChargeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ORD-202608-0001", req.Reference)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(PaymentResult{
			TransactionID: "tx_123",
			Status:        "captured",
			ProcessedAt:   time.Now().UTC(),
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key")
	require.NoError(t, err)

	result, err := client.ProcessPayment(context.Background(), ChargeRequest{
		OrderID:    uuid.New(),
		CustomerID: uuid.New(),
		Amount:     decimal.NewFromFloat(149.99),
		Currency:   enums.CurrencyUSD,
		Reference:  "ORD-202608-0001",
	})
	require.NoError(t, err)
	assert.Equal(t, "tx_123", result.TransactionID)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "/charges", gotPath)
}

func TestRefundPayment_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient balance", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key")
	require.NoError(t, err)

	_, err = client.RefundPayment(context.Background(), RefundRequest{
		OrderID:  uuid.New(),
		Amount:   decimal.NewFromInt(50),
		Currency: enums.CurrencyUSD,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestRefundPayment_ValidatesInput(t *testing.T) {
	client, err := NewClient("https://payments.internal", "test-key")
	require.NoError(t, err)

	_, err = client.RefundPayment(context.Background(), RefundRequest{
		Amount:   decimal.NewFromInt(10),
		Currency: enums.CurrencyUSD,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	negative := decimal.NewFromInt(-1)
	_, err = client.RefundPayment(context.Background(), RefundRequest{
		OrderID: uuid.New(),
		Amount:  negative,
	})
	require.Error(t, err)
}

func TestNewClient_RequiresConfig(t *testing.T) {
	_, err := NewClient("", "key")
	assert.Error(t, err)

	_, err = NewClient("https://payments.internal", " ")
	assert.Error(t, err)
}
