package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucket(t *testing.T) {
	tests := []struct {
		score float64
		want  GradeBucket
	}{
		{score: 10, want: Excellent},
		{score: 8.5, want: Excellent},
		{score: 8.4999, want: Good},
		{score: 7.0, want: Good},
		{score: 6.9999, want: Average},
		{score: 5.5, want: Average},
		{score: 5.4999, want: BelowAverage},
		{score: 0, want: BelowAverage},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bucket(tt.score), "Bucket(%v)", tt.score)
	}
}

func TestDistribution(t *testing.T) {
	got := Distribution([]float64{9, 8.5, 7.2, 6, 3})
	assert.Equal(t, []BucketCount{
		{Bucket: Excellent, Count: 2, Rate: 40},
		{Bucket: Good, Count: 1, Rate: 20},
		{Bucket: Average, Count: 1, Rate: 20},
		{Bucket: BelowAverage, Count: 1, Rate: 20},
	}, got)

	empty := Distribution(nil)
	assert.Len(t, empty, 4)
	for _, b := range empty {
		assert.Zero(t, b.Count)
		assert.Zero(t, b.Rate)
	}
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(0, 0))
	assert.Equal(t, 0.0, Rate(5, 0))
	assert.False(t, math.IsNaN(Rate(0, 0)))
	assert.Equal(t, 50.0, Rate(1, 2))
	assert.Equal(t, 33.33, Round2(Rate(1, 3)))
	assert.Equal(t, 100.0, Rate(3, 3))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 7.5, Mean([]float64{7, 8}))
}

type student struct {
	code  string
	grade float64
}

func codes(items []student) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, s.code)
	}
	return out
}

func TestTopN(t *testing.T) {
	students := []student{{"a", 7}, {"b", 9}, {"c", 9}, {"d", 5}, {"e", 8}}
	grade := func(s student) float64 { return s.grade }

	assert.Equal(t, []string{"b", "c", "e"}, codes(TopN(students, 3, grade)))
	assert.Equal(t, []string{"b", "c", "e", "a", "d"}, codes(TopN(students, 10, grade)))
	assert.Equal(t, []string{}, codes(TopN(students, 0, grade)))
	assert.Equal(t, []student{}, TopN[student](nil, 3, grade))
	// input untouched
	assert.Equal(t, "a", students[0].code)
}

func TestGroupAndCount(t *testing.T) {
	students := []student{{"a", 7}, {"b", 9}, {"c", 9}}
	byGrade := GroupBy(students, func(s student) float64 { return s.grade })
	assert.Equal(t, []string{"b", "c"}, codes(byGrade[9]))

	counts := CountBy(students, func(s student) GradeBucket { return Bucket(s.grade) })
	assert.Equal(t, map[GradeBucket]int{Excellent: 2, Good: 1}, counts)

	assert.Equal(t, 2, Count(students, func(s student) bool { return s.grade > 8 }))
}

func TestSortedCounts(t *testing.T) {
	got := SortedCounts(map[string]int{"SP24": 2, "FA24": 3, "SU24": 2})
	assert.Equal(t, []KeyCount[string]{
		{Key: "FA24", Count: 3},
		{Key: "SP24", Count: 2},
		{Key: "SU24", Count: 2},
	}, got)
}
