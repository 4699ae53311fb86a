package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/api/response"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/service"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/validation"
)

// EvaluationHandler handles wallet performance requests.
type EvaluationHandler struct {
	evaluationService *service.EvaluationService
	now               func() time.Time
}

// NewEvaluationHandler creates a new EvaluationHandler
func NewEvaluationHandler(evaluationService *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{
		evaluationService: evaluationService,
		now:               time.Now,
	}
}

// EvaluationAssetResponse is the performance of one priced holding.
type EvaluationAssetResponse struct {
	Symbol        string      `json:"symbol"`
	Quantity      json.Number `json:"quantity"`
	PurchasePrice json.Number `json:"purchasePrice"`
	Price         json.Number `json:"price"`
	Value         json.Number `json:"value"`
	Performance   json.Number `json:"performance"`
}

// EvaluationResponse is the performance of a wallet at a date. Best and worst
// are null when no holding could be priced.
type EvaluationResponse struct {
	Date             string                    `json:"date"`
	Total            json.Number               `json:"total"`
	BestAsset        *string                   `json:"bestAsset"`
	BestPerformance  *json.Number              `json:"bestPerformance"`
	WorstAsset       *string                   `json:"worstAsset"`
	WorstPerformance *json.Number              `json:"worstPerformance"`
	Assets           []EvaluationAssetResponse `json:"assets"`
}

// Evaluate handles GET requests for wallet performance at a date.
//
// Endpoint: GET /api/evaluation?email=alice@example.com&date=2024-05-01
// Query parameters:
//   - email: required
//   - date: YYYY-MM-DD or DD-MM-YYYY, defaults to today (UTC)
//
// Response: 200 OK with EvaluationResponse
// Error: 400 Bad Request for an invalid email or date
// Error: 404 Not Found if the user or wallet does not exist
func (h *EvaluationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	email := query.Get("email")
	if err := validation.ValidateEmail(email); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	date, err := validation.ParseDate(query.Get("date"), h.now())
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error(), query.Get("date"))
		return
	}

	eval, err := h.evaluationService.Evaluate(r.Context(), email, date)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToEvaluate)
		return
	}

	resp := EvaluationResponse{
		Date:             date.Format(time.DateOnly),
		Total:            fixed(eval.Total),
		BestAsset:        eval.BestAsset,
		BestPerformance:  nullFixed(eval.BestPerformance),
		WorstAsset:       eval.WorstAsset,
		WorstPerformance: nullFixed(eval.WorstPerformance),
		Assets:           make([]EvaluationAssetResponse, len(eval.Assets)),
	}
	for i, a := range eval.Assets {
		resp.Assets[i] = EvaluationAssetResponse{
			Symbol:        a.Symbol,
			Quantity:      exact(a.Quantity),
			PurchasePrice: exact(a.PurchasePrice),
			Price:         exact(a.Price),
			Value:         fixed(a.Value),
			Performance:   fixed(a.Performance),
		}
	}

	response.RespondJSON(w, http.StatusOK, resp)
}
