package models

import "time"

// Side distinguishes buys from sells.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Fill records one executed portfolio operation.
type Fill struct {
	Time       time.Time `json:"time"`
	Portfolio  string    `json:"portfolio"`
	Identifier string    `json:"identifier"`
	Side       Side      `json:"side"`
	Price      float64   `json:"price"`
	Quantity   int64     `json:"quantity"`
	Operation  string    `json:"operation"`
}
