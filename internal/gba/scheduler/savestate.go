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

package scheduler

// State is the serializable form of a Scheduler: the cycle counter and
// whatever events are still pending.
type State struct {
	Cycle uint64
	Queue []Event
}

// Export returns a copy of the scheduler's state. The returned queue is a
// fresh slice; mutating it afterward does not affect the scheduler.
func (s *Scheduler) Export() State {
	queue := make([]Event, len(s.queue))
	copy(queue, s.queue)
	return State{Cycle: s.cycle, Queue: queue}
}

// Import restores the scheduler to exactly the state Export captured.
func (s *Scheduler) Import(st State) {
	s.cycle = st.Cycle
	s.queue = make([]Event, len(st.Queue), maxEvents)
	copy(s.queue, st.Queue)
}
