package models

// BarsRequest selects one bar series.
type BarsRequest struct {
	Source string `query:"source" default:"BalanzWebsocket" validate:"required"`
	Ticker string `query:"ticker" validate:"required"`
	TF     int    `query:"tf" validate:"required,gte=5"`
	Limit  int    `query:"limit" default:"100" validate:"gte=1,lte=5000"`
}

// IndicatorsRequest selects one indicator series.
type IndicatorsRequest struct {
	Ticker    string `query:"ticker" validate:"required"`
	Kind      string `query:"kind" validate:"required"`
	TF        int    `query:"tf" validate:"required,gte=5"`
	MinLength int    `query:"min_length" validate:"required,gte=1"`
	Limit     int    `query:"limit" default:"100" validate:"gte=1,lte=5000"`
}

// QuoteRequest selects the freshest cached snapshot for one asset.
type QuoteRequest struct {
	Source string `query:"source" default:"BalanzWebsocket" validate:"required"`
	Ticker string `query:"ticker" validate:"required"`
}

// PortfolioView is the read-only state served over HTTP.
type PortfolioView struct {
	Name   string         `json:"name"`
	Liquid float64        `json:"liquid"`
	Lots   []PortfolioLot `json:"lots"`
}

// PortfolioLot is one open lot in a portfolio view.
type PortfolioLot struct {
	Identifier string  `json:"identifier"`
	Quantity   int64   `json:"quantity"`
	Price      float64 `json:"price"`
	Operation  string  `json:"operation"`
}
