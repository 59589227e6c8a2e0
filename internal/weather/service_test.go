package weather

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeProvider echoes the coordinate back as the payload and fails for the
// coordinates listed in fail.
type fakeProvider struct {
	mu    sync.Mutex
	fail  map[Coordinate]bool
	calls []time.Time
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) FetchCurrent(_ context.Context, c Coordinate) (json.RawMessage, error) {
	p.mu.Lock()
	p.calls = append(p.calls, time.Now())
	p.mu.Unlock()

	if p.fail[c] {
		return nil, &ProviderError{Provider: "fake", StatusCode: 500, Message: "boom"}
	}
	return json.Marshal(c)
}

func (p *fakeProvider) Normalize(c Coordinate, raw json.RawMessage) (Reading, error) {
	r := NewReading("fake", c, raw)
	r.TemperatureC = Ptr(c.Latitude)
	r.FillTemperatures()
	return r, nil
}

type fakeFactory struct {
	provider *fakeProvider
	asked    []string
}

func (f *fakeFactory) New(name string) (Provider, error) {
	f.asked = append(f.asked, name)
	if name != "fake" {
		return nil, ValidationErrorf("unsupported provider %q", name)
	}
	return f.provider, nil
}

var testCoords = []Coordinate{
	{Latitude: 1, Longitude: 10},
	{Latitude: 2, Longitude: 20},
	{Latitude: 3, Longitude: 30},
}

func TestRunPreservesOrder(t *testing.T) {
	factory := &fakeFactory{provider: &fakeProvider{}}
	svc := NewService(factory, nil)

	result, err := svc.Run(context.Background(), "fake", testCoords, RunOptions{FailFast: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Readings) != len(testCoords) {
		t.Fatalf("expected %d readings, got %d", len(testCoords), len(result.Readings))
	}
	for i, r := range result.Readings {
		if r.Coordinate() != testCoords[i] {
			t.Fatalf("reading %d: expected %v, got %v", i, testCoords[i], r.Coordinate())
		}
		if r.TemperatureF == nil {
			t.Fatalf("reading %d: expected derived temperature_f", i)
		}
		if len(r.Raw) == 0 {
			t.Fatalf("reading %d: expected raw payload", i)
		}
	}
}

func TestRunUnknownProviderMakesNoCalls(t *testing.T) {
	fp := &fakeProvider{}
	svc := NewService(&fakeFactory{provider: fp}, nil)

	_, err := svc.Run(context.Background(), "nope", testCoords, RunOptions{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(fp.calls) != 0 {
		t.Fatalf("expected no provider calls, got %d", len(fp.calls))
	}
}

func TestRunFailFast(t *testing.T) {
	fp := &fakeProvider{fail: map[Coordinate]bool{testCoords[1]: true}}
	svc := NewService(&fakeFactory{provider: fp}, nil)

	result, err := svc.Run(context.Background(), "fake", testCoords, RunOptions{FailFast: true})
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if len(result.Readings) != 1 {
		t.Fatalf("expected the reading gathered before the failure, got %d", len(result.Readings))
	}
	if len(fp.calls) != 2 {
		t.Fatalf("expected the batch to stop after the failure, got %d calls", len(fp.calls))
	}
}

func TestRunKeepGoing(t *testing.T) {
	fp := &fakeProvider{fail: map[Coordinate]bool{testCoords[1]: true}}
	svc := NewService(&fakeFactory{provider: fp}, nil)

	result, err := svc.Run(context.Background(), "fake", testCoords, RunOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(result.Readings))
	}
	if result.Readings[1].Coordinate() != testCoords[2] {
		t.Fatalf("expected order to be kept around the failure")
	}
	if len(result.Errors) != 1 || result.Errors[0].Coordinate != testCoords[1] {
		t.Fatalf("expected one error for the failed coordinate, got %+v", result.Errors)
	}
}

func TestRunDelayBetweenCalls(t *testing.T) {
	fp := &fakeProvider{}
	svc := NewService(&fakeFactory{provider: fp}, nil)

	delay := 30 * time.Millisecond
	start := time.Now()
	if _, err := svc.Run(context.Background(), "fake", testCoords, RunOptions{Delay: delay}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)

	// Two gaps for three coordinates, none after the last.
	if elapsed < 2*delay {
		t.Fatalf("expected at least %v, took %v", 2*delay, elapsed)
	}
	if gap := fp.calls[1].Sub(fp.calls[0]); gap < delay {
		t.Fatalf("expected calls to be spaced by %v, got %v", delay, gap)
	}
	if elapsed >= 3*delay+20*time.Millisecond {
		t.Fatalf("expected no delay after the last call, took %v", elapsed)
	}
}

func TestRunDelayHonoursCancellation(t *testing.T) {
	fp := &fakeProvider{}
	svc := NewService(&fakeFactory{provider: fp}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Run(ctx, "fake", testCoords, RunOptions{Delay: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(result.Readings) != 1 {
		t.Fatalf("expected only the first reading, got %d", len(result.Readings))
	}
}

func TestRunEmptyBatch(t *testing.T) {
	svc := NewService(&fakeFactory{provider: &fakeProvider{}}, nil)

	result, err := svc.Run(context.Background(), "fake", nil, RunOptions{FailFast: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Readings == nil || len(result.Readings) != 0 {
		t.Fatalf("expected empty, non-nil readings")
	}
}
