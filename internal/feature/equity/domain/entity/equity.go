// Package entity defines the domain models for the equity feature.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Equity is one security's trading day joined with its listing details.
type Equity struct {
	Symbol      string    // NSE symbol (e.g., "20MICRONS")
	CompanyName string    // Registered company name
	Series      string    // Series code from the listing (e.g., "EQ")
	ListingDate time.Time // Date of listing on the exchange
	PaidUpValue int64
	MarketLot   int64
	ISIN        string // 12-character ISIN, the join key
	FaceValue   int64

	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Last      decimal.Decimal
	PrevClose decimal.Decimal

	TotalTradedQty   decimal.Decimal
	TotalTradedValue decimal.Decimal
	TradeDate        time.Time // Trading day the prices belong to
	TotalTrades      int64
}

// Gainer is one row of a top-gainers ranking.
// Gains is (close - open) / open.
type Gainer struct {
	Symbol      string
	CompanyName string
	Series      string
	ListingDate time.Time
	ISIN        string
	TradeDate   time.Time
	Gains       float64
}
