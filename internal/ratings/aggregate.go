package ratings

import (
	"math"

	"github.com/payeasy/payeasy-api/internal/database"
)

// Distribution maps each star value 1..5 to a count.
type Distribution map[int]int

// Summary aggregates a set of ratings.
type Summary struct {
	Total        int          `json:"total"`
	Average      float64      `json:"average"`
	Distribution Distribution `json:"distribution"`
}

// Aggregate computes the total, the mean rounded to one decimal and the star
// histogram. Input order does not matter; ratings outside 1..5 count toward
// the total and mean but have no histogram bucket.
func Aggregate(ratings []database.Rating) Summary {
	dist := Distribution{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	if len(ratings) == 0 {
		return Summary{Distribution: dist}
	}

	sum := 0
	for _, r := range ratings {
		sum += r.Rating
		if _, ok := dist[r.Rating]; ok {
			dist[r.Rating]++
		}
	}
	avg := float64(sum) / float64(len(ratings))
	return Summary{
		Total:        len(ratings),
		Average:      math.Round(avg*10) / 10,
		Distribution: dist,
	}
}
