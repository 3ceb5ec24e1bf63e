// This file is part of Goba.
//
// Goba is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Goba is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Goba.  If not, see <https://www.gnu.org/licenses/>.

package scheduler_test

import (
	"testing"

	"github.com/exampleorg/goba/internal/gba/scheduler"
)

func TestAdvanceReturnsDueEventsInTimeOrder(t *testing.T) {
	s := scheduler.New()
	s.Schedule(scheduler.EventVBlankStart, 10)
	s.Schedule(scheduler.EventTimer0Overflow, 4)
	s.Schedule(scheduler.EventHBlankStart, 6)

	due := s.Advance(6)
	if len(due) != 2 {
		t.Fatalf("Advance(6) returned %d events, want 2", len(due))
	}
	if due[0].Kind != scheduler.EventTimer0Overflow || due[1].Kind != scheduler.EventHBlankStart {
		t.Fatalf("Advance(6) order = %v, want [Timer0Overflow HBlankStart]", due)
	}
	if _, pending := s.Pending(scheduler.EventVBlankStart); !pending {
		t.Fatal("VBlankStart should still be pending after Advance(6)")
	}

	due = s.Advance(4)
	if len(due) != 1 || due[0].Kind != scheduler.EventVBlankStart {
		t.Fatalf("Advance(4) = %v, want [VBlankStart]", due)
	}
}

func TestScheduleReplacesAnExistingEventOfTheSameKind(t *testing.T) {
	s := scheduler.New()
	s.Schedule(scheduler.EventDMA0End, 100)
	s.Schedule(scheduler.EventDMA0End, 20)

	at, pending := s.Pending(scheduler.EventDMA0End)
	if !pending {
		t.Fatal("DMA0End should be pending")
	}
	if at != 20 {
		t.Fatalf("DMA0End due at %d, want 20 (the rescheduled time)", at)
	}

	due := s.Advance(20)
	if len(due) != 1 {
		t.Fatalf("Advance(20) returned %d events, want exactly one (no duplicate)", len(due))
	}
}

func TestCancelRemovesAPendingEvent(t *testing.T) {
	s := scheduler.New()
	s.Schedule(scheduler.EventTimer1Overflow, 50)
	s.Cancel(scheduler.EventTimer1Overflow)

	if _, pending := s.Pending(scheduler.EventTimer1Overflow); pending {
		t.Fatal("Timer1Overflow still pending after Cancel")
	}
	if due := s.Advance(100); len(due) != 0 {
		t.Fatalf("Advance(100) returned %d events, want 0", len(due))
	}
}

func TestResetClearsCycleAndQueue(t *testing.T) {
	s := scheduler.New()
	s.Schedule(scheduler.EventVCount, 30)
	s.Advance(10)

	s.Reset()

	if s.Cycle() != 0 {
		t.Fatalf("Cycle() after Reset = %d, want 0", s.Cycle())
	}
	if _, pending := s.Pending(scheduler.EventVCount); pending {
		t.Fatal("VCount still pending after Reset")
	}
}
