package cache

// QuantizeKeyOpts holds the options that influence a quantization result.
type QuantizeKeyOpts struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Colors int    `json:"colors"`
	Method string `json:"method"`
	Paint  int    `json:"paint"`
	Tool   string `json:"tool"`
}

// Keyer generates cache keys.
type Keyer interface {
	// QuantizeKey generates a key for a quantization result of the source
	// image identified by sourceHash.
	QuantizeKey(sourceHash string, opts QuantizeKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// QuantizeKey returns "quantize:<sha256(sourceHash, opts)>".
func (DefaultKeyer) QuantizeKey(sourceHash string, opts QuantizeKeyOpts) string {
	return hashKey("quantize", sourceHash, opts)
}
