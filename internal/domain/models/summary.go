package models

import "time"

// SectorSummary aggregates composed results for one sector.
type SectorSummary struct {
	Count              int     `json:"count"`
	AvgSignalStrength  float64 `json:"avgSignalStrength"`
	BuySignals         int     `json:"buySignals"`
	SellSignals        int     `json:"sellSignals"`
	TotalVolume        float64 `json:"totalVolume"`
	AvgPrice           float64 `json:"avgPrice"`
	TopPerformer       string  `json:"topPerformer"`
	TopPerformerChange float64 `json:"topPerformerChange"`
}

// VolumeProfile buckets instruments by traded volume.
type VolumeProfile struct {
	TotalVolume float64        `json:"totalVolume"`
	AvgVolume   float64        `json:"avgVolume"`
	Ranges      VolumeRanges   `json:"volumeRanges"`
	TopStocks   []VolumeLeader `json:"topVolumeStocks"`
}

type VolumeRanges struct {
	Mega   int `json:"mega"`   // > 10M
	High   int `json:"high"`   // 5M..10M
	Medium int `json:"medium"` // 1M..5M
	Low    int `json:"low"`    // <= 1M
}

type VolumeLeader struct {
	Symbol        string  `json:"symbol"`
	Volume        float64 `json:"volume"`
	VolumePercent float64 `json:"volumePercent"`
	Signal        string  `json:"signal"`
	ChangePercent float64 `json:"changePercent"`
}

// MomentumAnalysis summarizes directional pressure across the result set.
type MomentumAnalysis struct {
	StrongMomentum  int          `json:"strongMomentum"`
	Bullish         int          `json:"bullishMomentum"`
	Bearish         int          `json:"bearishMomentum"`
	Neutral         int          `json:"neutralMomentum"`
	Gainers         int          `json:"gainers"`
	Losers          int          `json:"losers"`
	Unchanged       int          `json:"unchanged"`
	BigMovers       int          `json:"bigMovers"` // |change%| > 5
	TopGainers      []PriceMover `json:"topGainers"`
	TopLosers       []PriceMover `json:"topLosers"`
	MarketSentiment string       `json:"marketSentiment"` // BULLISH | BEARISH | NEUTRAL
}

type PriceMover struct {
	Symbol string  `json:"symbol"`
	Change float64 `json:"change"`
	Signal string  `json:"signal"`
}

// RiskAnalysis is the market-wide risk histogram.
type RiskAnalysis struct {
	LowRisk       int     `json:"lowRisk"`
	MediumRisk    int     `json:"mediumRisk"`
	HighRisk      int     `json:"highRisk"`
	AvgVolatility float64 `json:"avgVolatility"`
	AvgRiskReward float64 `json:"avgRiskReward"`
	MarketRisk    string  `json:"marketRisk"` // LOW | MEDIUM | HIGH
}

// MarketSummary covers the full (unfiltered) upstream record set.
type MarketSummary struct {
	TotalStocks       int     `json:"totalStocks"`
	TotalVolume       float64 `json:"totalVolume"`
	TotalValue        float64 `json:"totalValue"`
	Advancing         int     `json:"advancing"`
	Declining         int     `json:"declining"`
	Unchanged         int     `json:"unchanged"`
	AdvanceDeclineRat float64 `json:"advanceDeclineRatio"`
}

// SignalSummary counts composed signals per category.
type SignalSummary struct {
	Buy        int `json:"buy"`
	Sell       int `json:"sell"`
	Hold       int `json:"hold"`
	StrongBuy  int `json:"strongBuy"`
	StrongSell int `json:"strongSell"`
}

// MarketStatus reports the trading-session state at response time.
type MarketStatus struct {
	State       string    `json:"state"` // OPEN | PRE_MARKET | POST_MARKET | CLOSED
	IsOpen      bool      `json:"isOpen"`
	Message     string    `json:"message"`
	CurrentTime time.Time `json:"currentTime"`
}

// TradingRules is the strategy envelope served with every scan.
type TradingRules struct {
	TargetProfit string   `json:"targetProfit"`
	StopLoss     string   `json:"stopLoss"`
	Hold         string   `json:"hold"`
	Exit         []string `json:"exit"`
}

// ScanResult is the full payload of one pipeline run.
type ScanResult struct {
	Timestamp        int64                     `json:"timestamp"`
	TotalScanned     int                       `json:"totalScanned"`
	Displayed        int                       `json:"displayed"`
	Stocks           []InstrumentView          `json:"stocks"`
	SignalSummary    SignalSummary             `json:"signalSummary"`
	SectorAnalysis   map[string]*SectorSummary `json:"sectorAnalysis"`
	VolumeProfile    VolumeProfile             `json:"volumeProfile"`
	MomentumAnalysis MomentumAnalysis          `json:"momentumAnalysis"`
	RiskAnalysis     RiskAnalysis              `json:"riskAnalysis"`
	MarketSummary    MarketSummary             `json:"marketSummary"`
	MarketStatus     MarketStatus              `json:"marketStatus"`
	Strategy         string                    `json:"strategy"`
	Rules            TradingRules              `json:"rules"`
	FailedSymbols    []string                  `json:"failedSymbols,omitempty"`
	Cached           bool                      `json:"cached"`
}

// ArchiveRecord is the fixed shape accepted by the persistence sink.
type ArchiveRecord struct {
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name"`
	Price            float64   `json:"price"`
	Change           float64   `json:"change"`
	ChangePercent    float64   `json:"changePercent"`
	Volume           float64   `json:"volume"`
	Signal           string    `json:"signal"`
	SignalStrength   float64   `json:"signalStrength"`
	BandarSignal     string    `json:"bandarSignal"`
	BandarConfidence int       `json:"bandarConfidence"`
	BandarPattern    string    `json:"bandarPattern"`
	RSI              *float64  `json:"rsi"`
	SMA              *float64  `json:"sma"`
	EMA              *float64  `json:"ema"`
	VWAP             *float64  `json:"vwap"`
	Timestamp        time.Time `json:"timestamp"`
}

// ToArchiveRecord projects a view onto the persistence sink shape.
func (v *InstrumentView) ToArchiveRecord(ts time.Time) ArchiveRecord {
	return ArchiveRecord{
		Symbol:           v.Symbol,
		Name:             v.Name,
		Price:            v.Price,
		Change:           v.Change,
		ChangePercent:    v.ChangePercent,
		Volume:           v.Volume,
		Signal:           v.Signal,
		SignalStrength:   v.SignalStrength,
		BandarSignal:     v.BandarSignal,
		BandarConfidence: v.BandarConfidence,
		BandarPattern:    v.BandarPattern,
		RSI:              v.Indicators.RSI,
		SMA:              v.Indicators.SMA,
		EMA:              v.Indicators.EMA,
		VWAP:             v.Indicators.VWAP,
		Timestamp:        ts,
	}
}
