package api

import (
	"strings"

	"BarPulse/internal/domain/keys"
	"BarPulse/internal/domain/models"
	"BarPulse/internal/portfolio"
	"BarPulse/internal/service/cache"
	"BarPulse/internal/store"
	xhttp "BarPulse/pkg/http"
	xlogger "BarPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PipelineHandler serves read-only views over the in-memory pipeline:
// bar series, indicator series, cached quotes and portfolio state.
type PipelineHandler struct {
	logger     *xlogger.Logger
	data       *store.DataStore
	quotes     cache.Quotes
	portfolios []*portfolio.Portfolio
}

func NewPipelineHandler(logger *xlogger.Logger, data *store.DataStore, quotes cache.Quotes, portfolios []*portfolio.Portfolio) *PipelineHandler {
	return &PipelineHandler{logger: logger, data: data, quotes: quotes, portfolios: portfolios}
}

func (h *PipelineHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/bars", h.Bars)
	g.GET("/indicators", h.Indicators)
	g.GET("/quote", h.Quote)
	g.GET("/portfolio", h.Portfolio)
	e.GET("/healthz", h.Health)
}

func (h *PipelineHandler) Bars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	asset := models.Asset{Source: models.SourceKind(req.Source), Ticker: req.Ticker}
	key := keys.Bar(req.TF, asset)
	if !h.data.Bars().Has(key) {
		return xhttp.NotFoundResponse(c, "no bar series for "+asset.String())
	}
	return xhttp.SuccessResponse(c, h.data.Bars().Tail(key, req.Limit))
}

func (h *PipelineHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key, ok := h.indicatorKey(req)
	if !ok {
		return xhttp.NotFoundResponse(c, "no indicator series for "+req.Ticker+"#"+req.Kind)
	}
	return xhttp.SuccessResponse(c, h.data.Indicators().Tail(key, req.Limit))
}

// indicatorKey resolves the request to a stored series key. The request
// carries the fixed config fields only, so configs with extra parameters
// are matched by signature prefix.
func (h *PipelineHandler) indicatorKey(req *models.IndicatorsRequest) (string, bool) {
	asset := models.Asset{Ticker: req.Ticker}
	base := keys.Indicator(req.TF, asset, req.Kind, keys.Signature(req.TF, req.MinLength, nil))
	if h.data.Indicators().Has(base) {
		return base, true
	}
	for _, key := range h.data.Indicators().Keys() {
		if strings.HasPrefix(key, base+"#") {
			return key, true
		}
	}
	return "", false
}

func (h *PipelineHandler) Quote(c echo.Context) error {
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	tick, ok := h.quotes.Latest(keys.NotifyKey(models.SourceKind(req.Source), req.Ticker))
	if !ok {
		return xhttp.NotFoundResponse(c, "no quote for "+req.Ticker)
	}
	return xhttp.SuccessResponse(c, tick)
}

func (h *PipelineHandler) Portfolio(c echo.Context) error {
	views := make([]models.PortfolioView, 0, len(h.portfolios))
	for _, p := range h.portfolios {
		views = append(views, p.View())
	}
	return xhttp.SuccessResponse(c, views)
}

func (h *PipelineHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
