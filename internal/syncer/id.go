package syncer

import (
	"math/rand/v2"
	"strconv"
	"time"
)

// NewID returns a base-36 millisecond timestamp followed by a random base-36
// suffix. It is unique in practice, not by construction, and never parses as
// a server id.
func NewID() string {
	suffix := strconv.FormatUint(rand.Uint64(), 36)
	if len(suffix) > 10 {
		suffix = suffix[:10]
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + suffix
}
