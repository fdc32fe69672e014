// internal/runutil/runutil.go
package runutil

import "runtime"

// EffectiveWorkers resolves a worker-count flag: values <= 0 mean "all CPUs".
func EffectiveWorkers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}
