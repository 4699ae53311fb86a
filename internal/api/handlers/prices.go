package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/api/response"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/service"
)

// PriceHandler handles requests for tracked asset prices.
type PriceHandler struct {
	refreshService *service.PriceRefreshService
}

// NewPriceHandler creates a new PriceHandler
func NewPriceHandler(refreshService *service.PriceRefreshService) *PriceHandler {
	return &PriceHandler{
		refreshService: refreshService,
	}
}

// AssetPriceResponse is a tracked asset with its cached price.
type AssetPriceResponse struct {
	Symbol    string       `json:"symbol"`
	Name      string       `json:"name"`
	Price     *json.Number `json:"price"`
	UpdatedAt *string      `json:"updatedAt"`
}

// RefreshResponse summarizes a price refresh batch.
type RefreshResponse struct {
	Requested int                  `json:"requested"`
	Updated   int                  `json:"updated"`
	Missing   int                  `json:"missing"`
	Failed    int                  `json:"failed"`
	Skipped   bool                 `json:"skipped"`
	Errors    []model.RefreshError `json:"errors"`
	StartedAt time.Time            `json:"startedAt"`
	Duration  string               `json:"duration"`
}

// Prices handles GET requests for every tracked asset and its cached price.
//
// Endpoint: GET /api/prices
// Response: 200 OK with []AssetPriceResponse
// Error: 500 Internal Server Error if the assets cannot be read
func (h *PriceHandler) Prices(w http.ResponseWriter, r *http.Request) {
	assets, err := h.refreshService.ListAssets(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveAssets.Error(), err.Error())
		return
	}

	resp := make([]AssetPriceResponse, len(assets))
	for i, a := range assets {
		resp[i] = AssetPriceResponse{
			Symbol:    a.Symbol,
			Name:      a.Name,
			Price:     nullExact(a.Price),
			UpdatedAt: a.UpdatedAt,
		}
	}

	response.RespondJSON(w, http.StatusOK, resp)
}

// Refresh handles POST requests to refresh every tracked price now.
// Per-symbol failures are reported in the body, not as an error status.
//
// Endpoint: POST /api/prices/refresh
// Response: 200 OK with RefreshResponse
// Error: 500 Internal Server Error if the tracked symbols cannot be listed
func (h *PriceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	report, err := h.refreshService.RefreshTracked(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRefreshPrices.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, RefreshResponse{
		Requested: report.Requested,
		Updated:   report.Updated,
		Missing:   report.Missing,
		Failed:    report.Failed,
		Skipped:   report.Skipped,
		Errors:    report.Errors,
		StartedAt: report.StartedAt,
		Duration:  report.Duration.String(),
	})
}
