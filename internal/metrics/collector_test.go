package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordTiming(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpGenerate, 100*time.Millisecond)
	c.RecordTiming(OpGenerate, 300*time.Millisecond)
	c.RecordTiming(OpRouter, 50*time.Millisecond)

	snap := c.Snapshot()

	gen, ok := snap.Operations[OpGenerate]
	if !ok {
		t.Fatal("generate operation missing from snapshot")
	}
	if gen.Count != 2 {
		t.Errorf("Count = %d, want 2", gen.Count)
	}
	if gen.TotalTimeMs != 400 {
		t.Errorf("TotalTimeMs = %d, want 400", gen.TotalTimeMs)
	}
	if gen.AvgTimeMs != 200 {
		t.Errorf("AvgTimeMs = %f, want 200", gen.AvgTimeMs)
	}
	if gen.MinTimeMs != 100 || gen.MaxTimeMs != 300 {
		t.Errorf("Min/Max = %d/%d, want 100/300", gen.MinTimeMs, gen.MaxTimeMs)
	}

	if snap.Operations[OpRouter].Count != 1 {
		t.Errorf("router Count = %d, want 1", snap.Operations[OpRouter].Count)
	}
}

func TestSnapshotOmitsUnrecordedOps(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpPipeline, time.Second)

	snap := c.Snapshot()
	if len(snap.Operations) != 1 {
		t.Errorf("Operations has %d entries, want 1", len(snap.Operations))
	}
	if snap.UptimeSeconds < 0 {
		t.Errorf("UptimeSeconds = %f, want >= 0", snap.UptimeSeconds)
	}
}

func TestCollectorConcurrentAccess(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordTiming(OpGenerate, time.Millisecond)
				c.Snapshot()
			}
		}()
	}
	wg.Wait()

	if got := c.Snapshot().Operations[OpGenerate].Count; got != 800 {
		t.Errorf("Count = %d, want 800", got)
	}
}
