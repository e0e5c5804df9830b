package calculation

import "time"

// seedFunc returns a pseudo-random seed (override for deterministic Monte Carlo tests).
var seedFunc = func() int64 { return time.Now().UnixNano() }

// SetSeedFunc overrides the default seed source.
func SetSeedFunc(f func() int64) { seedFunc = f }
