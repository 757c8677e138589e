package booking

import "sort"

type SeatState string

const (
	SeatFree     SeatState = "free"
	SeatOccupied SeatState = "occupied"
	SeatSelected SeatState = "selected"
)

// SeatTile is one seat of the rendered bus layout.
type SeatTile struct {
	Number int       `json:"number"`
	State  SeatState `json:"state"`
}

// SeatSelection is the set of seats a traveller picked on one bus. It never
// holds an occupied seat and never grows beyond capacity.
type SeatSelection struct {
	capacity int
	occupied map[int]struct{}
	selected map[int]struct{}
}

// NewSeatSelection builds an empty selection. Occupied seats outside
// [1, capacity] are ignored.
func NewSeatSelection(capacity int, occupied []int) *SeatSelection {
	s := &SeatSelection{
		capacity: capacity,
		occupied: make(map[int]struct{}, len(occupied)),
		selected: make(map[int]struct{}),
	}
	for _, n := range occupied {
		if s.inRange(n) {
			s.occupied[n] = struct{}{}
		}
	}
	return s
}

// Toggle flips seat n and reports whether the selection changed. Occupied
// and out-of-range seats are a no-op, and so is adding a seat once the
// selection is at capacity.
func (s *SeatSelection) Toggle(n int) bool {
	if !s.inRange(n) || s.IsOccupied(n) {
		return false
	}
	if _, ok := s.selected[n]; ok {
		delete(s.selected, n)
		return true
	}
	if len(s.selected) >= s.capacity {
		return false
	}
	s.selected[n] = struct{}{}
	return true
}

func (s *SeatSelection) IsOccupied(n int) bool {
	_, ok := s.occupied[n]
	return ok
}

func (s *SeatSelection) IsSelected(n int) bool {
	_, ok := s.selected[n]
	return ok
}

func (s *SeatSelection) Capacity() int { return s.capacity }

func (s *SeatSelection) Count() int { return len(s.selected) }

// Selected returns the chosen seats in ascending order.
func (s *SeatSelection) Selected() []int {
	return sortedKeys(s.selected)
}

// Occupied returns the unavailable seats in ascending order.
func (s *SeatSelection) Occupied() []int {
	return sortedKeys(s.occupied)
}

// Fare is the total price for the current selection.
func (s *SeatSelection) Fare(pricePerSeat int64) int64 {
	return int64(len(s.selected)) * pricePerSeat
}

// Clear drops every selected seat.
func (s *SeatSelection) Clear() {
	s.selected = make(map[int]struct{})
}

// Layout splits seats 1..capacity into the given number of rows of equal
// width; the last row may be shorter.
func (s *SeatSelection) Layout(rows int) [][]SeatTile {
	if rows <= 0 || s.capacity <= 0 {
		return nil
	}
	width := (s.capacity + rows - 1) / rows
	out := make([][]SeatTile, 0, rows)
	for start := 1; start <= s.capacity; start += width {
		end := min(start+width-1, s.capacity)
		row := make([]SeatTile, 0, end-start+1)
		for n := start; n <= end; n++ {
			row = append(row, SeatTile{Number: n, State: s.state(n)})
		}
		out = append(out, row)
	}
	return out
}

func (s *SeatSelection) state(n int) SeatState {
	switch {
	case s.IsOccupied(n):
		return SeatOccupied
	case s.IsSelected(n):
		return SeatSelected
	default:
		return SeatFree
	}
}

func (s *SeatSelection) inRange(n int) bool {
	return n >= 1 && n <= s.capacity
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
