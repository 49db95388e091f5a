package psd

import "runtime"

func defaultThreads() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}
