// Package bucketing provides stable experiment bucket assignment.
// It maps an (experiment group, username) pair to one of N buckets so that
// the same user always lands in the same bucket for a given experiment,
// across restarts and across the companion browser-side implementation.
package bucketing

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidGroupCount is returned when the requested number of buckets is
// less than 1.
var ErrInvalidGroupCount = errors.New("group count must be at least 1")

// Assign returns the bucket (0..count-1) for the given experiment group and
// username.
//
// The assignment has been verified to return the same values as the
// client-side JavaScript bucketer and the master experiments table, so the
// exact recipe is a compatibility contract:
//
//  1. MD5 over the UTF-8 bytes of group, then username (in that order).
//  2. Render the digest as 32 lowercase hex characters.
//  3. Map each character: '0'-'7' -> '0', '8'-'9' and 'a'-'f' -> '1'.
//     This keeps the top bit of each nibble, most-significant nibble first.
//  4. Parse the resulting 32-character string as a base-2 integer.
//  5. Reduce modulo count.
//
// Do not replace any step with an "equivalent" shortcut: already-bucketed
// users would silently move between buckets.
func Assign(group, username string, count int) (int, error) {
	if count < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidGroupCount, count)
	}

	hasher := md5.New()
	hasher.Write([]byte(group))
	hasher.Write([]byte(username))
	digest := hex.EncodeToString(hasher.Sum(nil))

	bits := make([]byte, len(digest))
	for i := 0; i < len(digest); i++ {
		if digest[i] >= '0' && digest[i] <= '7' {
			bits[i] = '0'
		} else {
			bits[i] = '1'
		}
	}

	// 32 binary digits always fit in 32 bits; ParseUint cannot fail here.
	value, err := strconv.ParseUint(string(bits), 2, 32)
	if err != nil {
		return 0, fmt.Errorf("parse bucket hash bits: %w", err)
	}

	return int(value % uint64(count)), nil
}
