package metrics

// RequestSecondsBuckets covers a fast local call up to a slow generation.
var RequestSecondsBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60}
