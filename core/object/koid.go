// File: core/object/koid.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Kernel object id allocation. One process-wide counter, documented as a
// single global resource: ids are monotonic and never reused.

package object

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/momentics/kobject/api"
)

// koidGenerator pads the hot counter off neighboring cache lines; every
// object creation on every core hits it.
type koidGenerator struct {
	_    cpu.CacheLinePad
	next atomic.Uint64
	_    cpu.CacheLinePad
}

// firstKoid leaves room below for well-known ids.
const firstKoid = 1024

var koids = func() *koidGenerator {
	g := &koidGenerator{}
	g.next.Store(firstKoid)
	return g
}()

func nextKoid() api.Koid {
	return api.Koid(koids.next.Add(1) - 1)
}
