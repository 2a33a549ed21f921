/*
 *
 * Copyright 2026 The shmq Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package shmq

import (
	"runtime"
	"time"
)

// spinAttempts yields before the first sleep: a queue that turns over
// quickly is usually ready again within a few scheduler passes.
const spinAttempts = 64

// waitBackoff yields for the first spinAttempts tries, then sleeps with
// exponential backoff from 10µs up to about 1.3ms per wait.
func waitBackoff(attempt int) {
	if attempt < spinAttempts {
		runtime.Gosched()
		return
	}
	shift := attempt - spinAttempts
	if shift > 7 {
		shift = 7
	}
	time.Sleep(10 * time.Microsecond << uint(shift))
}
