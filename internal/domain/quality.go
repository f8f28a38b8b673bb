package domain

// DataQualityScore is a derived estimate of how trustworthy a single entry
// is. It is computed on demand during merging and never persisted.
type DataQualityScore struct {
	Completeness int `json:"completeness"`
	Recency      int `json:"recency"`
	Consistency  int `json:"consistency"`
	Reliability  int `json:"reliability"`
	Overall      int `json:"overall"`
}
