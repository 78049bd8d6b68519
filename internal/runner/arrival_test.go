package runner

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestNoArrivalControllerWithoutRate(t *testing.T) {
	opt := Options{RatePerSecond: 0}
	opt.normalize()
	if c := newArrivalController(opt); c != nil {
		t.Fatalf("got controller %T for unlimited rate", c)
	}
}

func TestUniformArrivalUsesLimiter(t *testing.T) {
	var gotRPS int
	opt := Options{
		RatePerSecond: 42,
		ArrivalModel:  ArrivalModelUniform,
		LimiterFactory: func(rps int) *rate.Limiter {
			gotRPS = rps
			return rate.NewLimiter(rate.Limit(rps), 1)
		},
	}
	opt.normalize()

	c := newArrivalController(opt)
	if _, ok := c.(*uniformArrival); !ok {
		t.Fatalf("got %T, want *uniformArrival", c)
	}
	if gotRPS != 42 {
		t.Fatalf("limiter built with rps=%d, want 42", gotRPS)
	}
	if err := c.Wait(context.Background()); err != nil {
		t.Fatalf("first wait should pass on the burst token: %v", err)
	}
}

func TestUniformArrivalWaitCanceled(t *testing.T) {
	u := &uniformArrival{limiter: rate.NewLimiter(rate.Limit(0.01), 0)}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := u.Wait(ctx); err == nil {
		t.Fatal("expected an error waiting past the context deadline")
	}
}

func TestPoissonNextDelay(t *testing.T) {
	samples := []float64{1.0, 0.5, 2.0}
	idx := 0
	p := &poissonArrival{
		rate: 10, // 100ms mean inter-arrival
		sample: func() float64 {
			v := samples[idx%len(samples)]
			idx++
			return v
		},
	}

	want := []time.Duration{
		100 * time.Millisecond,
		50 * time.Millisecond,
		200 * time.Millisecond,
	}
	for i, w := range want {
		if got := p.nextDelay(); got != w {
			t.Fatalf("delay %d: got %s, want %s", i, got, w)
		}
	}
}

func TestPoissonWaitCanceled(t *testing.T) {
	p := &poissonArrival{rate: 0.001, sample: func() float64 { return 1 }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestPoissonSelectedByModel(t *testing.T) {
	opt := Options{
		RatePerSecond:  5,
		ArrivalModel:   ArrivalModelPoisson,
		PoissonSampler: func() float64 { return 0 },
	}
	opt.normalize()
	if _, ok := newArrivalController(opt).(*poissonArrival); !ok {
		t.Fatal("poisson model did not select the poisson controller")
	}
}
