// Package workload generates the stream of read/write operations driven
// against the store: per-iteration kind selection and key-domain draws.
package workload

import (
	"math/rand"
	"time"
)

// Kind identifies the operation type.
type Kind int

const (
	Read Kind = iota
	Write
)

func (k Kind) String() string {
	if k == Write {
		return "WRITE"
	}
	return "READ"
}

// Operation is one unit of work handed to the store adapter.
// Created fresh per iteration and discarded after recording.
type Operation struct {
	Kind      Kind
	DeviceID  int       // index into the device identifier pool
	Timestamp time.Time // issue time, persisted on writes
	Value     float64   // write payload
}

// Selector makes the per-iteration read/write decision. Each call is an
// independent Bernoulli trial; there is no memory of prior picks, so the
// realized write fraction only converges to WriteRatio statistically.
type Selector struct {
	WriteRatio float64
}

func (s Selector) Pick(rnd *rand.Rand) Kind {
	if rnd.Float64() < s.WriteRatio {
		return Write
	}
	return Read
}

// Keys draws device indexes uniformly from a fixed pool of size PoolSize.
type Keys struct {
	PoolSize int
}

func (k Keys) DeviceID(rnd *rand.Rand) int {
	return rnd.Intn(k.PoolSize)
}

// New builds the next operation from the injected random source.
func New(rnd *rand.Rand, sel Selector, keys Keys) Operation {
	op := Operation{
		Kind:      sel.Pick(rnd),
		DeviceID:  keys.DeviceID(rnd),
		Timestamp: time.Now().UTC(),
	}
	if op.Kind == Write {
		op.Value = rnd.Float64() * 100.0
	}
	return op
}

const deviceIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// DevicePool builds the string identifiers backing each device index.
// The pool is fixed for the run so reads hit rows written earlier.
func DevicePool(rnd *rand.Rand, size int) []string {
	pool := make([]string, size)
	suffix := make([]byte, 8)
	for i := range pool {
		for j := range suffix {
			suffix[j] = deviceIDAlphabet[rnd.Intn(len(deviceIDAlphabet))]
		}
		pool[i] = "device-" + string(suffix)
	}
	return pool
}
