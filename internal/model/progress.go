package model

// ProgressSnapshot reports how far an analysis run has advanced.
// Completed and Failed are each non-decreasing within one run and
// Completed+Failed never exceeds Total. Percent is rounded to two
// decimal places.
type ProgressSnapshot struct {
	Total     int
	Completed int
	Failed    int
	Percent   float64
}

// Done reports whether every submitted symbol has settled.
func (p ProgressSnapshot) Done() bool {
	return p.Total > 0 && p.Completed+p.Failed >= p.Total
}
