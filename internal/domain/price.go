package domain

// Price is the latest known market state for one canonical asset id.
// ChangePercent and Volume are zero when the source does not carry them.
type Price struct {
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"`
	Volume        float64 `json:"volume"`
}

// Valid reports whether the entry can be stored in the price table.
func (p Price) Valid() bool {
	return p.Price > 0 && p.Volume >= 0
}

// ConnStatus is the coarse-grained state of a price feed connection.
type ConnStatus string

const (
	StatusConnecting   ConnStatus = "connecting"
	StatusConnected    ConnStatus = "connected"
	StatusDisconnected ConnStatus = "disconnected"
	StatusError        ConnStatus = "error"
)

// IsDown reports whether the feed is unavailable and a fallback source should run.
func (s ConnStatus) IsDown() bool {
	return s == StatusDisconnected || s == StatusError
}

func (s ConnStatus) String() string { return string(s) }
