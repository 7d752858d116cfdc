package models

// SourceKind tags a concrete market data venue implementation.
type SourceKind string

const (
	// SourceBalanzWebsocket is the Balanz streaming quote feed.
	SourceBalanzWebsocket SourceKind = "BalanzWebsocket"
)

// Asset is one tradeable instrument on one venue. Identity is the
// (Source, Ticker) pair; Identifier and Alias ride along but never
// participate in equality.
type Asset struct {
	Ticker     string     `yaml:"ticker"`
	Identifier string     `yaml:"identifier"`
	Source     SourceKind `yaml:"source"`
	Alias      string     `yaml:"alias"`
}

// AssetID is the comparable identity used as a map key.
type AssetID struct {
	Source SourceKind
	Ticker string
}

// ID returns the asset's identity key.
func (a Asset) ID() AssetID {
	return AssetID{Source: a.Source, Ticker: a.Ticker}
}

// String renders the identity as <source>#<ticker>.
func (a Asset) String() string {
	return string(a.Source) + "#" + a.Ticker
}

// Prefix is the strategy-facing name: the alias when set, the ticker
// otherwise.
func (a Asset) Prefix() string {
	if a.Alias != "" {
		return a.Alias
	}
	return a.Ticker
}
