package flags

import (
	"github.com/cespare/xxhash/v2"
)

// bucketUser returns a deterministic bucket (0-99) for the given user and
// flag. The same username + flagName + salt combination always returns the
// same bucket, so increasing a rollout percentage only ever adds users.
//
// This is intentionally a different hash than the stable experiment
// bucketer: flag rollouts are salted and server-internal, experiment bucket
// assignment is a cross-platform contract.
func bucketUser(username, flagName, salt string) int {
	if username == "" {
		return -1 // no user context
	}
	key := username + ":" + flagName + ":" + salt
	return int(xxhash.Sum64String(key) % 100)
}
