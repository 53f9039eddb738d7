package dashboard

import (
	"sync"

	"github.com/banshee-data/tactile/internal/frame"
)

// State is a point-in-time copy of everything a Sink has been told.
type State struct {
	Heatmap *frame.Matrix
	Labels  [][]int
	Range   DisplayRange
	Row     int
	Values  []int
	Title   string
	// Version increases with every sink call.
	Version uint64
}

// Store is a Sink that keeps the latest rendered state for renderers that
// draw on their own schedule, such as the terminal and web front ends. Sink
// calls never block.
type Store struct {
	mu     sync.Mutex
	state  State
	notify chan struct{}
}

// NewStore returns an empty Store sized rows x cols, titled for row 0.
func NewStore(rows, cols int) *Store {
	labels := make([][]int, rows)
	for i := range labels {
		labels[i] = make([]int, cols)
	}
	return &Store{
		state: State{
			Heatmap: frame.NewMatrix(rows, cols),
			Labels:  labels,
			Range:   DefaultDisplayRange(),
			Values:  make([]int, cols),
			Title:   RowTitle(0),
		},
		notify: make(chan struct{}, 1),
	}
}

func (s *Store) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	s.state.Version++
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Store) SetHeatmap(m *frame.Matrix, r DisplayRange) {
	s.update(func(st *State) {
		if st.Heatmap.CopyFrom(m) != nil {
			st.Heatmap = m.Clone()
		}
		st.Range = r
	})
}

func (s *Store) SetCellLabel(row, col, value int) {
	s.update(func(st *State) {
		if row < 0 || row >= len(st.Labels) || col < 0 || col >= len(st.Labels[row]) {
			return
		}
		st.Labels[row][col] = value
	})
}

func (s *Store) SetLinePlot(row int, values []int) {
	s.update(func(st *State) {
		st.Row = row
		st.Values = append(st.Values[:0], values...)
	})
}

func (s *Store) SetSelectedRowTitle(row int) {
	s.update(func(st *State) {
		st.Title = RowTitle(row)
	})
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Heatmap = s.state.Heatmap.Clone()
	st.Labels = make([][]int, len(s.state.Labels))
	for i, row := range s.state.Labels {
		st.Labels[i] = append([]int(nil), row...)
	}
	st.Values = append([]int(nil), s.state.Values...)
	return st
}

// Updated receives after sink calls. Bursts of calls coalesce into a single
// notification.
func (s *Store) Updated() <-chan struct{} {
	return s.notify
}
