package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tychoorderbook/internal/apperr"
	"tychoorderbook/internal/domain"
	"tychoorderbook/internal/models"
	"tychoorderbook/internal/orderbook"
	"tychoorderbook/internal/repository"
	"tychoorderbook/internal/valuation"
	"tychoorderbook/pkg/validate"
)

// OrderbookHandler serves the assembled-orderbook endpoints.
type OrderbookHandler struct {
	builder *orderbook.Builder
	router  *valuation.Router
	audits  *repository.BuildAuditRepository
	log     *zap.Logger
}

// NewOrderbookHandler builds an OrderbookHandler. audits may be nil, in
// which case builds are not persisted to the audit trail.
func NewOrderbookHandler(builder *orderbook.Builder, router *valuation.Router, audits *repository.BuildAuditRepository, log *zap.Logger) *OrderbookHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderbookHandler{builder: builder, router: router, audits: audits, log: log}
}

func tokenFromPairTag(tag string) (domain.Token, domain.Token, error) {
	base, quote, err := validate.PairTag(tag)
	if err != nil {
		return domain.Token{}, domain.Token{}, apperr.Wrap(apperr.CodeInvalidPair, "invalid pair tag", err)
	}
	return domain.Token{Address: base}, domain.Token{Address: quote}, nil
}

// GetOrderbook handles GET /api/v1/orderbook/{tag}.
func (h *OrderbookHandler) GetOrderbook(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]
	base, quote, err := tokenFromPairTag(tag)
	if err != nil {
		writeError(w, err)
		return
	}

	ob, err := h.builder.Build(r.Context(), orderbook.Request{Base: base, Quote: quote})
	if err != nil {
		writeError(w, err)
		return
	}

	h.recordAudit(ob)
	writeJSON(w, http.StatusOK, ob)
}

// GetMidPrice handles GET /api/v1/orderbook/{tag}/midprice, a supplemented
// lightweight endpoint that skips ladder construction entirely.
func (h *OrderbookHandler) GetMidPrice(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]
	base, quote, err := tokenFromPairTag(tag)
	if err != nil {
		writeError(w, err)
		return
	}

	ob, err := h.builder.Build(r.Context(), orderbook.Request{
		Base: base, Quote: quote, ProbeOnly: true, ProbeAmount: 0.001, ProbeBaseToQuote: true,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ob.MidPrice)
}

// ProbeOrderbook handles GET /api/v1/orderbook/{tag}/probe?amount=&direction=.
func (h *OrderbookHandler) ProbeOrderbook(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]
	base, quote, err := tokenFromPairTag(tag)
	if err != nil {
		writeError(w, err)
		return
	}

	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil || amount <= 0 {
		writeError(w, apperr.New(apperr.CodeInvalidPair, "amount query parameter must be a positive number"))
		return
	}
	baseToQuote := r.URL.Query().Get("direction") != "quote_to_base"

	ob, err := h.builder.Build(r.Context(), orderbook.Request{
		Base: base, Quote: quote, ProbeOnly: true, ProbeAmount: amount, ProbeBaseToQuote: baseToQuote,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ob)
}

func (h *OrderbookHandler) recordAudit(ob domain.Orderbook) {
	if h.audits == nil {
		return
	}
	audit := &models.BuildAudit{
		Tag:            ob.Tag,
		BlockHeight:    ob.BlockHeight,
		AskPoints:      len(ob.Asks),
		BidPoints:      len(ob.Bids),
		MidPrice:       ob.MidPrice.Mid,
		Degraded:       ob.Degraded,
		DegradedReason: ob.DegradedReason,
	}
	if err := h.audits.Create(audit); err != nil {
		h.log.Warn("failed to persist build audit", zap.Error(err), zap.String("tag", ob.Tag))
	}
}
