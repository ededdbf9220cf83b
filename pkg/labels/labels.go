// Package labels classifies a product's relative price against a benchmark
// into one of three pricing bands, and maps bands onto the merchant's
// configured custom label names.
package labels

// Band identifies the pricing zone a relative price falls into.
type Band int

const (
	// BandNone means no band matched; the record carries an empty label.
	BandNone Band = iota
	// BandBelow means the price undercuts the benchmark past the below threshold.
	BandBelow
	// BandAt means the price sits inside the at-benchmark band.
	BandAt
	// BandAbove means the price exceeds the benchmark past the above threshold.
	BandAbove
)

// String returns a short identifier for the band, for logs.
func (b Band) String() string {
	switch b {
	case BandBelow:
		return "below"
	case BandAt:
		return "at"
	case BandAbove:
		return "above"
	default:
		return "none"
	}
}

// Thresholds holds the three configured band edges. Below must be <= 0 and
// At and Above must be >= 0; the configuration layer normalizes them before
// they reach Classify. At and Above are configured independently, so when
// Above > At the interval [At, Above] matches no band and classifies as
// BandNone. That gap is intentional and preserved.
type Thresholds struct {
	Below float64
	At    float64
	Above float64
}

// Classify maps a relative price (price/benchmark - 1) onto a band.
// The rules are evaluated in order; each comparison's strictness is part of
// the contract:
//
//  1. relative < Below            -> BandBelow
//  2. -At <= relative < At        -> BandAt
//  3. relative > Above            -> BandAbove (strict)
//  4. otherwise                   -> BandNone
func Classify(relative float64, t Thresholds) Band {
	switch {
	case relative < t.Below:
		return BandBelow
	case -t.At <= relative && relative < t.At:
		return BandAt
	case relative > t.Above:
		return BandAbove
	default:
		return BandNone
	}
}

// Names holds the merchant-facing label text per band, e.g.
// {"cheaper than market", "at market price", "above market price"}.
type Names struct {
	Below string
	At    string
	Above string
}

// For returns the configured label for a band. BandNone renders as the
// empty string.
func (n Names) For(b Band) string {
	switch b {
	case BandBelow:
		return n.Below
	case BandAt:
		return n.At
	case BandAbove:
		return n.Above
	default:
		return ""
	}
}
