package models

import "math"

// RawRecord is one instrument's daily trading summary as published by the
// exchange feed. Immutable once ingested.
type RawRecord struct {
	StockCode   string  `json:"StockCode"`
	StockName   string  `json:"StockName"`
	Previous    float64 `json:"Previous"`
	OpenPrice   float64 `json:"OpenPrice"`
	High        float64 `json:"High"`
	Low         float64 `json:"Low"`
	Close       float64 `json:"Close"`
	Change      float64 `json:"Change"`
	Volume      float64 `json:"Volume"`
	Value       float64 `json:"Value"`
	Frequency   float64 `json:"Frequency"`
	Offer       float64 `json:"Offer"`
	OfferVolume float64 `json:"OfferVolume"`
	Bid         float64 `json:"Bid"`
	BidVolume   float64 `json:"BidVolume"`
	ForeignSell float64 `json:"ForeignSell"`
	ForeignBuy  float64 `json:"ForeignBuy"`
}

// ChangePercent returns the day's change relative to the previous close,
// in percent. Zero when the previous close is not positive.
func (r *RawRecord) ChangePercent() float64 {
	if r.Previous <= 0 {
		return 0
	}
	return r.Change / r.Previous * 100
}

// ForeignNet returns net foreign buying volume.
func (r *RawRecord) ForeignNet() float64 {
	return r.ForeignBuy - r.ForeignSell
}

// SpreadRatio returns (offer-bid)/bid. A book with no bid has an unbounded
// spread, so tightness rules must never fire on it.
func (r *RawRecord) SpreadRatio() float64 {
	if r.Bid <= 0 {
		return math.Inf(1)
	}
	return (r.Offer - r.Bid) / r.Bid
}

// SyntheticBar is one bar of the synthesized intraday proxy series.
// The last bar of a series always carries the record's real values.
type SyntheticBar struct {
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`
	VWAP   float64 `json:"vwap"`
}

// IndicatorSet holds the computed technical indicators. A nil field means
// the series was too short for that indicator, never an error.
type IndicatorSet struct {
	RSI   *float64        `json:"rsi"`
	SMA   *float64        `json:"sma"`
	EMA   *float64        `json:"ema"`
	MACD  MACDValue       `json:"macd"`
	BB    BollingerValue  `json:"bb"`
	Stoch StochasticValue `json:"stoch"`
	VWAP  *float64        `json:"vwap"`
}

type MACDValue struct {
	Line      *float64 `json:"line"`
	Signal    *float64 `json:"signal"`
	Histogram *float64 `json:"histogram"`
}

type BollingerValue struct {
	Upper  *float64 `json:"upper"`
	Middle *float64 `json:"middle"`
	Lower  *float64 `json:"lower"`
}

type StochasticValue struct {
	K *float64 `json:"k"`
	D *float64 `json:"d"`
}

// Bandar classification labels.
const (
	PatternAccumulation = "ACCUMULATION"
	PatternDistribution = "DISTRIBUTION"
	PatternMomentum     = "MOMENTUM"
	PatternNeutral      = "NEUTRAL"
)

// PatternClassification is the weighted-rule verdict about large-player
// accumulation/distribution behavior.
type PatternClassification struct {
	Label      string `json:"label"`
	Confidence int    `json:"confidence"` // 0..5
	Rationale  string `json:"rationale"`  // fired rule descriptions, comma-joined
}

// Risk tiers.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// RiskProfile summarizes downside metrics for one instrument.
type RiskProfile struct {
	Support         float64 `json:"support"`
	Resistance      float64 `json:"resistance"`
	ATR             float64 `json:"atr"`
	Volatility      float64 `json:"volatility"`
	RiskRewardRatio float64 `json:"riskRewardRatio"`
	Tier            string  `json:"tier"`
}

// TradePlan is the intraday plan derived from the risk tier.
type TradePlan struct {
	TargetPrice  float64 `json:"targetPrice"`
	StopLoss     float64 `json:"stopLoss"`
	RiskReward   string  `json:"riskReward"` // "1:x"
	Timeframe    string  `json:"timeframe"`  // always INTRADAY
	PositionSize string  `json:"positionSize"`
	MaxHoldTime  string  `json:"maxHoldTime"`
}

// Signal categories.
const (
	SignalStrongBuy  = "STRONG_BUY"
	SignalBuy        = "BUY"
	SignalHold       = "HOLD"
	SignalSell       = "SELL"
	SignalStrongSell = "STRONG_SELL"
)

// SignalResult is the composed directional signal. Immutable after composition.
type SignalResult struct {
	Category string  `json:"category"`
	Strength float64 `json:"strength"` // clamped to [-5,5]
}

// MarketDepth is the order-book snapshot carried on the view.
type MarketDepth struct {
	Bid           float64 `json:"bid"`
	BidVolume     float64 `json:"bidVolume"`
	Ask           float64 `json:"ask"`
	AskVolume     float64 `json:"askVolume"`
	Spread        float64 `json:"spread"`
	SpreadPercent float64 `json:"spreadPercent"`
}

// ForeignActivity summarizes foreign order flow.
type ForeignActivity struct {
	NetBuy     float64 `json:"netBuy"`
	BuyVolume  float64 `json:"buyVolume"`
	SellVolume float64 `json:"sellVolume"`
	Dominance  float64 `json:"dominance"` // (buy+sell)/volume, percent
}

// InstrumentView is the externally visible per-instrument result.
type InstrumentView struct {
	Symbol           string          `json:"symbol"`
	Name             string          `json:"name"`
	Sector           string          `json:"sector"`
	Price            float64         `json:"price"`
	Change           float64         `json:"change"`
	ChangePercent    float64         `json:"changePercent"`
	Volume           float64         `json:"volume"`
	Signal           string          `json:"signal"`
	SignalStrength   float64         `json:"signalStrength"`
	BandarSignal     string          `json:"bandarSignal"`
	BandarConfidence int             `json:"bandarConfidence"`
	BandarPattern    string          `json:"bandarPattern"`
	Indicators       IndicatorSet    `json:"indicators"`
	MarketDepth      MarketDepth     `json:"marketDepth"`
	ForeignActivity  ForeignActivity `json:"foreignActivity"`
	Bias             string          `json:"bias"`     // BULLISH | BEARISH
	Pressure         float64         `json:"pressure"` // bid-side share of book, percent
	RiskLevel        string          `json:"riskLevel"`
	RiskMetrics      RiskProfile     `json:"riskMetrics"`
	DayTradePlan     TradePlan       `json:"dayTradePotential"`
	Volatility       float64         `json:"volatility"`
}
