package hpt

import "github.com/jbarham/primegen"

// trialSeeds returns the seeds of trials first..first+n-1: the base seed
// offset by the prime with the trial's index, so no two trials share a stream.
func trialSeeds(base int64, first, n int) []int64 {
	pg := primegen.New()
	for i := 0; i < first; i++ {
		pg.Next()
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = base + int64(pg.Next())
	}
	return out
}
