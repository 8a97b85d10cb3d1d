package core

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestPredictableTimestamper_AdvancesByOne(t *testing.T) {
	clock := NewPredictableTimestamper()
	for n := 1; n <= 5; n++ {
		if got, want := clock.Time(), float64(PredictableStartTime+n); got != want {
			t.Fatalf("call %d: expected %v, got %v", n, want, got)
		}
	}
}

func TestPredictableTimestamper_InstancesDoNotShareState(t *testing.T) {
	first := NewPredictableTimestamper()
	second := NewPredictableTimestamper()
	first.Time()
	first.Time()
	first.Time()
	if got := second.Time(); got != PredictableStartTime+1 {
		t.Fatalf("expected fresh instance to start at +1, got %v", got)
	}
}

func TestWallClockTimestamper_TracksSystemClock(t *testing.T) {
	before := float64(time.Now().Unix())
	got := WallClockTimestamper{}.Time()
	after := float64(time.Now().Unix()) + 1
	if got < before || got > after {
		t.Fatalf("expected %v within [%v, %v]", got, before, after)
	}
}

func TestNow_ConvertsReading(t *testing.T) {
	got := Now(NewPredictableTimestamper())
	if got.Unix() != PredictableStartTime+1 {
		t.Fatalf("expected unix %d, got %d", PredictableStartTime+1, got.Unix())
	}
}

func TestSequenceIdsProvider_StartsAtOne(t *testing.T) {
	provider := NewSequenceIdsProvider()
	for want := 1; want <= 1000; want++ {
		if got := provider.NewSessionID(); got != SessionID(want) {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
}

func TestSequenceIdsProvider_WrapsAtUint32Bound(t *testing.T) {
	provider := NewSequenceIdsProvider(WithLastSessionID(math.MaxUint32 - 1))
	if got := provider.NewSessionID(); got != math.MaxUint32 {
		t.Fatalf("expected last id before wrap %d, got %d", uint32(math.MaxUint32), got)
	}
	if got := provider.NewSessionID(); got != 0 {
		t.Fatalf("expected wrap to 0, got %d", got)
	}
	if got := provider.NewSessionID(); got != 1 {
		t.Fatalf("expected sequence to resume at 1, got %d", got)
	}
}

func TestSequenceIdsProvider_ConcurrentCallsAreUnique(t *testing.T) {
	provider := NewSequenceIdsProvider()
	const workers, perWorker = 8, 500
	var mu sync.Mutex
	seen := make(map[SessionID]bool, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]SessionID, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				local = append(local, provider.NewSessionID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				if seen[id] {
					t.Errorf("duplicate session id %d", id)
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()
	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d ids, got %d", workers*perWorker, len(seen))
	}
}
