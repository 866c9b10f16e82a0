package stats

type GradeBucket string

const (
	Excellent    GradeBucket = "Excellent"
	Good         GradeBucket = "Good"
	Average      GradeBucket = "Average"
	BelowAverage GradeBucket = "BelowAverage"
)

// grading policy thresholds
const (
	excellentMin = 8.5
	goodMin      = 7.0
	averageMin   = 5.5
)

// GradeBuckets lists the buckets from best to worst.
var GradeBuckets = []GradeBucket{Excellent, Good, Average, BelowAverage}

func Bucket(score float64) GradeBucket {
	switch {
	case score >= excellentMin:
		return Excellent
	case score >= goodMin:
		return Good
	case score >= averageMin:
		return Average
	default:
		return BelowAverage
	}
}

type BucketCount struct {
	Bucket GradeBucket `json:"bucket"`
	Count  int         `json:"count"`
	Rate   float64     `json:"rate"` // percentage of all scores, 2 decimals
}

// Distribution counts scores per bucket. Every bucket is present, best first.
func Distribution(scores []float64) []BucketCount {
	counts := make(map[GradeBucket]int, len(GradeBuckets))
	for _, s := range scores {
		counts[Bucket(s)]++
	}
	out := make([]BucketCount, 0, len(GradeBuckets))
	for _, b := range GradeBuckets {
		out = append(out, BucketCount{
			Bucket: b,
			Count:  counts[b],
			Rate:   Round2(Rate(counts[b], len(scores))),
		})
	}
	return out
}
