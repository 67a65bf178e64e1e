// Package util has small helpers with no better home.
package util

import "math"

// MovingWindow keeps running mean and standard deviation over the last
// capacity values pushed into it.
type MovingWindow struct {
	values   []float64
	head     int
	length   int
	capacity int

	sum    float64
	sqSum  float64
	mean   float64
	stddev float64
}

// NewMovingWindow returns a new moving window.
func NewMovingWindow(size int) *MovingWindow {
	return &MovingWindow{
		values:   make([]float64, size),
		capacity: size,
	}
}

func (mw *MovingWindow) recalc() (float64, float64) {
	if mw.length > 0 {
		mw.mean = mw.sum / float64(mw.length)
	} else {
		mw.mean = 0
	}

	if mw.length > 1 {
		variance := (mw.sqSum - float64(mw.length)*mw.mean*mw.mean) / float64(mw.length-1)
		mw.stddev = math.Sqrt(math.Abs(variance))
	} else {
		mw.stddev = 0
	}

	return mw.mean, mw.stddev
}

// Update pushes a value, evicting the oldest one when full, and returns the
// new mean and standard deviation.
func (mw *MovingWindow) Update(value float64) (float64, float64) {
	if mw.length == mw.capacity {
		old := mw.values[mw.head]
		mw.sum -= old
		mw.sqSum -= old * old
	} else {
		mw.length++
	}

	mw.values[mw.head] = value
	mw.head = (mw.head + 1) % mw.capacity

	mw.sum += value
	mw.sqSum += value * value

	return mw.recalc()
}

// Drop removes the oldest count values from the window.
func (mw *MovingWindow) Drop(count int) (float64, float64) {
	for count > 0 && mw.length > 0 {
		oldest := (mw.head - mw.length + mw.capacity*2) % mw.capacity
		old := mw.values[oldest]

		mw.sum -= old
		mw.sqSum -= old * old
		mw.length--
		count--
	}

	if mw.length < 1 {
		// Clear accumulated rounding error along with the last value.
		mw.sum = 0
		mw.sqSum = 0
	}

	return mw.recalc()
}

// Len returns how many values are in the window.
func (mw *MovingWindow) Len() int {
	return mw.length
}

// Cap returns the window capacity.
func (mw *MovingWindow) Cap() int {
	return mw.capacity
}

// Mean is the moving window average.
func (mw *MovingWindow) Mean() float64 {
	return mw.mean
}

// StdDev is the moving window standard deviation.
func (mw *MovingWindow) StdDev() float64 {
	return mw.stddev
}

// Stats returns the mean and standard deviation together.
func (mw *MovingWindow) Stats() (float64, float64) {
	return mw.mean, mw.stddev
}
