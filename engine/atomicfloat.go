// Copyright 2024 Northern.tech AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package engine

import (
	"math"
	"sync/atomic"
)

// atomicFloat64 stores a float64 behind a word-sized atomic, per the design
// note that driver state needs no locks: a single writer updates speeds at
// chunk boundaries, observers only need a fresh-enough read.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat64) store(v float64) {
	a.bits.Store(math.Float64bits(v))
}
