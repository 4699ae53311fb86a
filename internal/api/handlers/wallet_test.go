package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/api/handlers"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/api/response"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/testutil"
)

// TestWalletHandler_CreateWallet tests the POST /api/wallet endpoint.
//
// WHY: Wallet creation is the entry point for every user. The frontend relies
// on 201 for success, 400 for bad input and 409 for a duplicate email.
func TestWalletHandler_CreateWallet(t *testing.T) {
	t.Run("POST /api/wallet returns 201 with the new wallet", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewWalletHandler(testutil.NewTestWalletService(t, db, testutil.NewMockCoinCapClient()))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/wallet", map[string]string{"email": "alice@example.com"})
		w := httptest.NewRecorder()

		// Execute
		handler.CreateWallet(w, req)

		// Assert
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
		}

		owner := testutil.DecodeJSON[model.WalletOwner](t, w)
		if owner.Email != "alice@example.com" {
			t.Errorf("Expected email alice@example.com, got %q", owner.Email)
		}
		if owner.WalletID == "" {
			t.Error("Expected wallet ID in response")
		}
	})

	t.Run("POST /api/wallet returns 409 for existing email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewWalletHandler(testutil.NewTestWalletService(t, db, testutil.NewMockCoinCapClient()))
		testutil.CreateWalletOwner(t, db, "bob@example.com")

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/wallet", map[string]string{"email": "bob@example.com"})
		w := httptest.NewRecorder()
		handler.CreateWallet(w, req)

		if w.Code != http.StatusConflict {
			t.Fatalf("Expected status 409, got %d", w.Code)
		}
		resp := testutil.DecodeJSON[response.ErrorResponse](t, w)
		if resp.Error != apperrors.ErrWalletExists.Error() {
			t.Errorf("Expected '%s' error, got '%s'", apperrors.ErrWalletExists.Error(), resp.Error)
		}
	})

	t.Run("POST /api/wallet returns 400 for invalid input", func(t *testing.T) {
		tests := []struct {
			name string
			body any
		}{
			{"malformed JSON", "{not json"},
			{"unknown field", map[string]string{"email": "a@example.com", "extra": "x"}},
			{"invalid email", map[string]string{"email": "not-an-email"}},
			{"missing email", map[string]string{}},
		}

		db := testutil.SetupTestDB(t)
		handler := handlers.NewWalletHandler(testutil.NewTestWalletService(t, db, testutil.NewMockCoinCapClient()))

		for _, tt := range tests {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/api/wallet", tt.body)
			w := httptest.NewRecorder()
			handler.CreateWallet(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("%s: expected status 400, got %d", tt.name, w.Code)
			}
		}
	})
}

// TestWalletHandler_GetWallet tests the GET /api/wallet endpoint.
//
// WHY: The wallet view renders amounts directly. Totals and values must be
// rounded to two decimals and unpriced holdings must carry a null price.
func TestWalletHandler_GetWallet(t *testing.T) {
	t.Run("GET /api/wallet returns valued holdings", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewWalletHandler(testutil.NewTestWalletService(t, db, testutil.NewMockCoinCapClient()))
		owner := testutil.NewWalletOwner().Build(t, db)

		testutil.SetAssetPrice(t, db, "BTC", "20000")
		btc := testutil.SeededAsset(t, db, "BTC")
		doge := testutil.SeededAsset(t, db, "DOGE")
		base := testutil.MustParseDay(t, "2024-01-01")
		testutil.NewHolding(owner.WalletID, btc.ID).WithQuantity("2").WithPurchasePrice("10000").WithCreatedAt(base).Build(t, db)
		testutil.NewHolding(owner.WalletID, doge.ID).WithQuantity("1000").WithPurchasePrice("0.1").WithCreatedAt(base.AddDate(0, 0, 1)).Build(t, db)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/wallet", map[string]string{"email": owner.Email})
		w := httptest.NewRecorder()

		// Execute
		handler.GetWallet(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		resp := testutil.DecodeJSON[handlers.WalletResponse](t, w)
		if resp.Total.String() != "40000.00" {
			t.Errorf("Expected total 40000.00, got %s", resp.Total)
		}
		if len(resp.Assets) != 2 {
			t.Fatalf("Expected 2 assets, got %d", len(resp.Assets))
		}
		if resp.Assets[0].Symbol != "BTC" || resp.Assets[0].Value.String() != "40000.00" {
			t.Errorf("Expected BTC valued at 40000.00, got %+v", resp.Assets[0])
		}
		if resp.Assets[0].Price == nil || resp.Assets[0].Price.String() != "20000" {
			t.Errorf("Expected BTC price 20000, got %v", resp.Assets[0].Price)
		}
		if resp.Assets[1].Price != nil {
			t.Errorf("Expected null DOGE price, got %v", *resp.Assets[1].Price)
		}
		if resp.Assets[1].Value.String() != "0.00" {
			t.Errorf("Expected DOGE value 0.00, got %s", resp.Assets[1].Value)
		}
	})

	t.Run("GET /api/wallet returns 404 for unknown user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewWalletHandler(testutil.NewTestWalletService(t, db, testutil.NewMockCoinCapClient()))

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/wallet", map[string]string{"email": "ghost@example.com"})
		w := httptest.NewRecorder()
		handler.GetWallet(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", w.Code)
		}
		resp := testutil.DecodeJSON[response.ErrorResponse](t, w)
		if resp.Error != apperrors.ErrUserNotFound.Error() {
			t.Errorf("Expected '%s' error, got '%s'", apperrors.ErrUserNotFound.Error(), resp.Error)
		}
	})

	t.Run("GET /api/wallet returns 400 without email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewWalletHandler(testutil.NewTestWalletService(t, db, testutil.NewMockCoinCapClient()))

		req := httptest.NewRequest(http.MethodGet, "/api/wallet", nil)
		w := httptest.NewRecorder()
		handler.GetWallet(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("GET /api/wallet returns 500 when database is closed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewWalletHandler(testutil.NewTestWalletService(t, db, testutil.NewMockCoinCapClient()))
		db.Close()

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/wallet", map[string]string{"email": "any@example.com"})
		w := httptest.NewRecorder()
		handler.GetWallet(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("Expected status 500, got %d", w.Code)
		}
		resp := testutil.DecodeJSON[response.ErrorResponse](t, w)
		if resp.Error != apperrors.ErrFailedToRetrieveWallet.Error() {
			t.Errorf("Expected '%s' error, got '%s'", apperrors.ErrFailedToRetrieveWallet.Error(), resp.Error)
		}
	})
}

// TestWalletHandler_AddAsset tests the POST /api/wallet/assets endpoint.
//
// WHY: Adding an asset accepts amounts as JSON numbers or strings and must
// reject bad input before touching the price source.
func TestWalletHandler_AddAsset(t *testing.T) {
	t.Run("POST /api/wallet/assets returns the holding", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		prices := testutil.NewMockCoinCapClient().WithPrice("BTC", "bitcoin", "20000")
		handler := handlers.NewWalletHandler(testutil.NewTestWalletService(t, db, prices))
		owner := testutil.NewWalletOwner().Build(t, db)

		body := `{"email":"` + owner.Email + `","symbol":"btc","quantity":"2","purchasePrice":10000}`
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/wallet/assets", body)
		w := httptest.NewRecorder()

		// Execute
		handler.AddAsset(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := testutil.DecodeJSON[handlers.WalletAssetResponse](t, w)
		if resp.Symbol != "BTC" {
			t.Errorf("Expected symbol BTC, got %q", resp.Symbol)
		}
		if resp.Value.String() != "40000.00" {
			t.Errorf("Expected value 40000.00, got %s", resp.Value)
		}
		if resp.Quantity.String() != "2" || resp.PurchasePrice.String() != "10000" {
			t.Errorf("Expected 2 @ 10000, got %s @ %s", resp.Quantity, resp.PurchasePrice)
		}
	})

	t.Run("POST /api/wallet/assets returns 404 when no price exists", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewWalletHandler(testutil.NewTestWalletService(t, db, testutil.NewMockCoinCapClient()))
		owner := testutil.NewWalletOwner().Build(t, db)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/wallet/assets", map[string]any{
			"email": owner.Email, "symbol": "NOPE", "quantity": 1, "purchasePrice": 1,
		})
		w := httptest.NewRecorder()
		handler.AddAsset(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", w.Code)
		}
		resp := testutil.DecodeJSON[response.ErrorResponse](t, w)
		if resp.Error != apperrors.ErrAssetPriceNotFound.Error() {
			t.Errorf("Expected '%s' error, got '%s'", apperrors.ErrAssetPriceNotFound.Error(), resp.Error)
		}
	})

	t.Run("POST /api/wallet/assets returns 400 for invalid amounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		prices := testutil.NewMockCoinCapClient().WithPrice("BTC", "bitcoin", "20000")
		handler := handlers.NewWalletHandler(testutil.NewTestWalletService(t, db, prices))
		owner := testutil.NewWalletOwner().Build(t, db)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/wallet/assets", map[string]any{
			"email": owner.Email, "symbol": "BTC", "quantity": "-1",
		})
		w := httptest.NewRecorder()
		handler.AddAsset(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", w.Code)
		}

		resp := testutil.DecodeJSON[map[string]any](t, w)
		details, ok := resp["details"].(map[string]any)
		if !ok {
			t.Fatalf("Expected field details, got %v", resp["details"])
		}
		if _, ok := details["quantity"]; !ok {
			t.Error("Expected quantity in details")
		}
		if _, ok := details["purchasePrice"]; !ok {
			t.Error("Expected purchasePrice in details")
		}
		if n := prices.Calls("CurrentPrice", "BTC"); n != 0 {
			t.Errorf("Expected no price lookup, got %d", n)
		}
	})

	t.Run("POST /api/wallet/assets returns 400 for non-numeric amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewWalletHandler(testutil.NewTestWalletService(t, db, testutil.NewMockCoinCapClient()))

		body := `{"email":"a@example.com","symbol":"BTC","quantity":"lots","purchasePrice":"1"}`
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/wallet/assets", body)
		w := httptest.NewRecorder()
		handler.AddAsset(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("request context is passed to the service", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		prices := testutil.NewMockCoinCapClient().WithPrice("BTC", "bitcoin", "20000")
		handler := handlers.NewWalletHandler(testutil.NewTestWalletService(t, db, prices))
		owner := testutil.NewWalletOwner().Build(t, db)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/wallet/assets", map[string]any{
			"email": owner.Email, "symbol": "BTC", "quantity": 1, "purchasePrice": 1,
		}).WithContext(ctx)
		w := httptest.NewRecorder()
		handler.AddAsset(w, req)

		if w.Code == http.StatusOK {
			t.Error("Expected cancelled request to fail")
		}
	})
}
