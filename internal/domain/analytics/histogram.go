package analytics

// Histogram is the filled series for a plan. Dropped counts rows that had no
// timestamp or fell outside every planned bucket.
type Histogram struct {
	Points  []SeriesPoint `json:"points"`
	Dropped int           `json:"dropped"`
}

// Fill counts result uploads per bucket. Every planned bucket is present in
// the output, in plan order, even when its count is zero.
func (p *Plan) Fill(results []ResultRow) Histogram {
	counts := make(map[string]int, len(p.Buckets))
	for _, b := range p.Buckets {
		counts[b.Key] = 0
	}

	dropped := 0
	for _, r := range results {
		if r.CreatedAt == nil {
			dropped++
			continue
		}
		key := p.Key(*r.CreatedAt)
		if _, ok := counts[key]; !ok {
			dropped++
			continue
		}
		counts[key]++
	}

	points := make([]SeriesPoint, len(p.Buckets))
	for i, b := range p.Buckets {
		points[i] = SeriesPoint{Label: b.Label, Value: counts[b.Key]}
	}
	return Histogram{Points: points, Dropped: dropped}
}
