package ratelimit

import "time"

func toDuration(n nanosecs) time.Duration {
	return time.Duration(n)
}

func toNanosecs(d time.Duration) nanosecs {
	if d < 0 {
		return 0
	}
	return uint64(d.Nanoseconds())
}
