package grid

// Range selects a strided run of elements. Semantics follow the usual
// half-open slicing convention:
//
//   - Step 0 is treated as 1.
//   - A negative Start or Stop counts back from the end (so -1 names
//     the last element) before clamping.
//   - With a positive Step, Start and Stop clamp into [0, size].
//   - With a negative Step, Start clamps into [-1, size-1] and a Stop
//     resolving below 0 clamps to -1, the position before the first
//     element, so Range{-1, -size - 1, -1} walks the whole array in
//     reverse.
//   - A range whose Start has already crossed Stop in the direction of
//     travel is empty; empty ranges are legal and produce a size-zero
//     array.
type Range struct {
	Start, Stop, Step int64
}

// normalize resolves r against an array of the given size, returning
// the exact start/stop/step triple that goes on the wire along with
// the element count the server will select.
func (r Range) normalize(size int64) (start, stop, step, count int64) {
	step = r.Step
	if step == 0 {
		step = 1
	}

	start = r.Start
	if start < 0 {
		start += size
	}
	stop = r.Stop
	if stop < 0 {
		stop += size
	}

	if step > 0 {
		start = clamp(start, 0, size)
		stop = clamp(stop, 0, size)
		if start < stop {
			count = (stop-start-1)/step + 1
		}
		return start, stop, step, count
	}

	start = clamp(start, -1, size-1)
	stop = clamp(stop, -1, size-1)
	if start > stop {
		count = (start-stop-1)/(-step) + 1
	}
	return start, stop, step, count
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
