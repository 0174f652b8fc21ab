package format

import (
	"github.com/montanaflynn/stats"

	"github.com/s0up4200/pi/api"
)

// Summary holds descriptive statistics of a timeseries
type Summary struct {
	Count  int
	First  string
	Last   string
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
}

// SummarizeTimeseries computes descriptive statistics over the values of ts.
// A series without data yields a zero Summary.
func SummarizeTimeseries(ts api.Timeseries) Summary {
	values := ts.Values()
	if len(values) == 0 {
		return Summary{}
	}

	// Empty input is the only failure condition of these
	minimum, _ := stats.Min(values)
	maximum, _ := stats.Max(values)
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	stdDev, _ := stats.StandardDeviation(values)

	return Summary{
		Count:  len(values),
		First:  ts.Data[0].Date,
		Last:   ts.Data[len(ts.Data)-1].Date,
		Min:    minimum,
		Max:    maximum,
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
	}
}
