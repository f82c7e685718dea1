package scoring

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWeights overrides the composite weights. Invalid weights are ignored.
func WithWeights(w Weights) Option {
	return func(a *Aggregator) {
		if w.Validate() == nil {
			a.weights = w
		}
	}
}

// WithMinPeerReceived sets how many received peer records make has_peer true.
// Values below 1 are ignored.
func WithMinPeerReceived(n int) Option {
	return func(a *Aggregator) {
		if n >= 1 {
			a.minPeerReceived = n
		}
	}
}
