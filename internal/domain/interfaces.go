package domain

import "time"

// Connectivity reports network reachability.
// Connected must be cheap and safe to call from any goroutine.
type Connectivity interface {
	Connected() bool
}

// Clock returns the current time. Services take one so staleness can be tested.
type Clock func() time.Time
