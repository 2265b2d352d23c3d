package app

import (
	"reflect"
	"sync"
	"testing"

	"github.com/bft-labs/posefeed/internal/domain"
)

func sampleAt(id string, ts float64) domain.PoseSample {
	return domain.PoseSample{
		EntityID:  id,
		Position:  [3]float64{ts, ts, ts},
		Rotation:  [4]float64{0, 0, 0, 1},
		Timestamp: ts,
	}
}

func TestLatestSlot_ReadEmpty(t *testing.T) {
	l := NewLatestSlot()

	if _, ok := l.Read("rigid1"); ok {
		t.Error("Read() on empty slot returned ok")
	}
	if _, ok := l.Read(""); ok {
		t.Error("Read(\"\") on empty slot returned ok")
	}
}

func TestLatestSlot_WriteAndRead(t *testing.T) {
	l := NewLatestSlot()

	l.Write(sampleAt("rigid1", 1))
	l.Write(sampleAt("rigid2", 2))

	got, ok := l.Read("rigid1")
	if !ok || got.Timestamp != 1 {
		t.Errorf("Read(rigid1) = %v, %v", got, ok)
	}

	latest, ok := l.Read("")
	if !ok || latest.EntityID != "rigid2" {
		t.Errorf("Read(\"\") = %v, want most recent write rigid2", latest.EntityID)
	}
}

func TestLatestSlot_RejectsStale(t *testing.T) {
	l := NewLatestSlot()

	if !l.Write(sampleAt("rigid1", 5)) {
		t.Fatal("first Write() rejected")
	}
	if l.Write(sampleAt("rigid1", 4)) {
		t.Error("Write() accepted an older sample")
	}
	if !l.Write(sampleAt("rigid1", 5)) {
		t.Error("Write() rejected a sample with an equal timestamp")
	}

	got, _ := l.Read("rigid1")
	if got.Timestamp != 5 {
		t.Errorf("Timestamp = %v, want 5", got.Timestamp)
	}
}

func TestLatestSlot_SnapshotAndEntities(t *testing.T) {
	l := NewLatestSlot()
	l.Write(sampleAt("b", 1))
	l.Write(sampleAt("a", 1))

	if got := l.Entities(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Entities() = %v, want [a b]", got)
	}

	snap := l.Snapshot()
	delete(snap, "a")
	if l.Len() != 2 {
		t.Error("mutating the snapshot changed the slot")
	}
}

func TestLatestSlot_Reset(t *testing.T) {
	l := NewLatestSlot()
	l.Write(sampleAt("rigid1", 1))
	l.Reset()

	if l.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", l.Len())
	}
	if _, ok := l.Read(""); ok {
		t.Error("Read(\"\") returned a sample after Reset")
	}
	if !l.Write(sampleAt("rigid1", 0.5)) {
		t.Error("Write() after Reset compared against the previous epoch")
	}
}

// Every sample written has all fields equal to its timestamp, so a reader that
// observes mixed values saw a torn write.
func TestLatestSlot_NoTornReads(t *testing.T) {
	l := NewLatestSlot()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 5000; i++ {
			l.Write(sampleAt("rigid1", float64(i)))
		}
		close(stop)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := 0.0
			for {
				select {
				case <-stop:
					return
				default:
				}
				s, ok := l.Read("rigid1")
				if !ok {
					continue
				}
				ts := s.Timestamp
				if s.Position != [3]float64{ts, ts, ts} {
					t.Errorf("torn read: %+v", s)
					return
				}
				if ts < last {
					t.Errorf("timestamp went backwards: %v after %v", ts, last)
					return
				}
				last = ts
			}
		}()
	}

	wg.Wait()
}

func TestEntityFilter_Match(t *testing.T) {
	tests := []struct {
		filter string
		id     string
		want   bool
	}{
		{"", "anything", true},
		{"rigid1", "rigid1", true},
		{"rigid1", "rigid1:3", true},
		{"rigid1", "rigid2", false},
		{"rigid1", "rigid10", false},
		{"rigid1", "xrigid1:1", false},
		{"Tracker0@host", "Tracker0@host:2", true},
	}

	for _, tt := range tests {
		f := NewEntityFilter(tt.filter)
		if got := f.Match(tt.id); got != tt.want {
			t.Errorf("filter %q Match(%q) = %v, want %v", tt.filter, tt.id, got, tt.want)
		}
	}
}

func TestEntityFilter_Set(t *testing.T) {
	f := NewEntityFilter("a")
	f.Set("b")

	if f.Name() != "b" {
		t.Errorf("Name() = %q, want b", f.Name())
	}
	if f.Match("a") {
		t.Error("old filter still applied after Set")
	}
}
