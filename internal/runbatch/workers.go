// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"runtime"
)

// AllCores asks ResolveWorkers for one worker per available processing unit.
const AllCores = -1

// NumCPU returns the number of available processing units.
var NumCPU = runtime.NumCPU

// ErrInvalidConfig is matched by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// InvalidConfigError is a worker count that is neither -1 nor positive.
type InvalidConfigError struct {
	Workers int
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%s: worker count must be -1 or greater than 0, got %d", ErrInvalidConfig, e.Workers)
}

// Is reports ErrInvalidConfig.
func (e *InvalidConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// ResolveWorkers turns a requested worker count into the pool size:
// -1 is every core, n > 0 is capped at the core count.
func ResolveWorkers(n int) (int, error) {
	cores := max(NumCPU(), 1)

	switch {
	case n == AllCores:
		return cores, nil
	case n > 0:
		return min(n, cores), nil
	default:
		return 0, &InvalidConfigError{Workers: n}
	}
}
