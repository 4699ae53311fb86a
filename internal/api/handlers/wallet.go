package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/api/request"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/api/response"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/service"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/validation"
)

// WalletHandler handles HTTP requests for wallets and their holdings.
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// WalletAssetResponse is one holding valued at its cached price.
// Price is null when the asset has never been priced.
type WalletAssetResponse struct {
	Symbol        string       `json:"symbol"`
	Price         *json.Number `json:"price"`
	Quantity      json.Number  `json:"quantity"`
	Value         json.Number  `json:"value"`
	PurchasePrice json.Number  `json:"purchasePrice"`
}

// WalletResponse is the valued content of a wallet.
type WalletResponse struct {
	Total  json.Number           `json:"total"`
	Assets []WalletAssetResponse `json:"assets"`
}

func newWalletAssetResponse(a model.WalletAssetInfo) WalletAssetResponse {
	return WalletAssetResponse{
		Symbol:        a.Symbol,
		Price:         nullExact(a.Price),
		Quantity:      exact(a.Quantity),
		Value:         fixed(a.Value),
		PurchasePrice: exact(a.PurchasePrice),
	}
}

// CreateWallet handles POST requests to register a user and create their wallet.
//
// Endpoint: POST /api/wallet
// Request body: {"email": "alice@example.com"}
// Response: 201 Created with the new wallet owner
// Error: 400 Bad Request for an invalid email
// Error: 409 Conflict if the email already has a wallet
func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateWalletRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateWallet(req); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToCreateWallet)
		return
	}

	owner, err := h.walletService.CreateWallet(r.Context(), req.Email)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToCreateWallet)
		return
	}

	response.RespondJSON(w, http.StatusCreated, owner)
}

// GetWallet handles GET requests for a wallet valued at cached prices.
//
// Endpoint: GET /api/wallet?email=alice@example.com
// Response: 200 OK with WalletResponse
// Error: 400 Bad Request for an invalid email
// Error: 404 Not Found if the user or wallet does not exist
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if err := validation.ValidateEmail(email); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	info, err := h.walletService.GetWalletInfo(r.Context(), email)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveWallet)
		return
	}

	resp := WalletResponse{
		Total:  fixed(info.Total),
		Assets: make([]WalletAssetResponse, len(info.Assets)),
	}
	for i, a := range info.Assets {
		resp.Assets[i] = newWalletAssetResponse(a)
	}

	response.RespondJSON(w, http.StatusOK, resp)
}

// AddAsset handles POST requests to add a purchase to a wallet.
//
// Endpoint: POST /api/wallet/assets
// Request body: {"email": "...", "symbol": "BTC", "quantity": "0.5", "purchasePrice": 30000}
// Response: 200 OK with the resulting holding
// Error: 400 Bad Request for invalid input
// Error: 404 Not Found if the user, wallet or a current price does not exist
func (h *WalletHandler) AddAsset(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.AddAssetRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateAddAsset(req); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToAddAsset)
		return
	}

	holding, err := h.walletService.AddAsset(r.Context(), service.AddAssetInput{
		Email:         req.Email,
		Symbol:        req.Symbol,
		Quantity:      *req.Quantity,
		PurchasePrice: *req.PurchasePrice,
	})
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToAddAsset)
		return
	}

	response.RespondJSON(w, http.StatusOK, newWalletAssetResponse(holding))
}
