package util

import "github.com/asecurityteam/rolling"

// WindowStats summarizes the values of a rolling window
type WindowStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func CreateRollingWindow(size int) *rolling.PointPolicy {
	return rolling.NewPointPolicy(rolling.NewWindow(size))
}

// GetWindowAvg returns the average of all values in the window
func GetWindowAvg(window *rolling.PointPolicy) float64 {
	return window.Reduce(rolling.Avg)
}

// GetWindowMax returns the largest value in the window
func GetWindowMax(window *rolling.PointPolicy) float64 {
	return window.Reduce(rolling.Max)
}

// GetWindowMin returns the smallest value in the window
func GetWindowMin(window *rolling.PointPolicy) float64 {
	return window.Reduce(rolling.Min)
}

func GetWindowStats(window *rolling.PointPolicy) WindowStats {
	return WindowStats{
		Avg: GetWindowAvg(window),
		Min: GetWindowMin(window),
		Max: GetWindowMax(window),
	}
}
