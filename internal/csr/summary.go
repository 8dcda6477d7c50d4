package csr

import (
	"sort"
	"sync"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/stat"
)

// DefaultSummaryBins is the number of quality histogram bins.
const DefaultSummaryBins = 20

// Summary accumulates the outcome of many searches.
//
// Thread-safety: Summary is safe for concurrent use via internal mutex.
type Summary struct {
	mu sync.Mutex

	hist      *hbook.H1D
	width     float64
	qualities []float64
	events    int
	types     map[EventType]int
	reasons   map[Reason]int
}

// NewSummary creates a summary whose quality histogram has bins bins over
// [min, max]. An empty range is widened to one unit.
func NewSummary(bins int, min, max float64) *Summary {
	if bins < 1 {
		bins = DefaultSummaryBins
	}
	if !(max > min) {
		max = min + 1
	}
	return &Summary{
		hist:    hbook.NewH1D(bins, min, max),
		width:   (max - min) / float64(bins),
		types:   make(map[EventType]int),
		reasons: make(map[Reason]int),
	}
}

// Add records one result.
func (s *Summary) Add(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events++
	if !r.Good() {
		s.reasons[r.Reason]++
		return
	}
	s.types[r.Type]++
	if r.Quality < Failed {
		s.hist.Fill(r.Quality, 1)
		s.qualities = append(s.qualities, r.Quality)
	}
}

// HistogramBin is one quality histogram bin.
type HistogramBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count float64 `json:"count"`
}

// SummaryReport is a snapshot of a Summary.
type SummaryReport struct {
	Events  int               `json:"events"`
	Good    int               `json:"good"`
	Types   map[EventType]int `json:"types"`
	Reasons map[Reason]int    `json:"reasons"`
	Mean    float64           `json:"mean_quality"`
	Median  float64           `json:"median_quality"`
	Bins    []HistogramBin    `json:"bins"`
}

// Report returns the current totals. Mean and median are 0 without good
// events.
func (s *Summary) Report() SummaryReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := SummaryReport{
		Events:  s.events,
		Types:   make(map[EventType]int, len(s.types)),
		Reasons: make(map[Reason]int, len(s.reasons)),
	}
	for k, v := range s.types {
		rep.Types[k] = v
		rep.Good += v
	}
	for k, v := range s.reasons {
		rep.Reasons[k] = v
	}
	if len(s.qualities) > 0 {
		sorted := append([]float64(nil), s.qualities...)
		sort.Float64s(sorted)
		rep.Mean = stat.Mean(sorted, nil)
		rep.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	for i := 0; i < s.hist.Len(); i++ {
		x, y := s.hist.XY(i)
		rep.Bins = append(rep.Bins, HistogramBin{Low: x, High: x + s.width, Count: y})
	}
	return rep
}
