package flags

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"
	"github.com/rs/zerolog"
)

// Evaluator answers "is this flag on for this user" against a Store.
type Evaluator struct {
	store Store
	salt  string
	log   zerolog.Logger
}

// NewEvaluator creates an evaluator. The salt feeds the rollout hash and
// must stay constant across restarts for consistent bucketing.
func NewEvaluator(store Store, salt string, log zerolog.Logger) *Evaluator {
	return &Evaluator{store: store, salt: salt, log: log}
}

// Enabled evaluates the named flag for a user. Missing flags, store errors,
// and malformed audience expressions all evaluate to false: a broken toggle
// must degrade to the experiment being off, not break the page.
//
// Evaluation order, each step short-circuiting to disabled:
//  1. flag exists and Enabled is true
//  2. audience expression (if any) matches the user attributes
//  3. the user's rollout bucket is below the rollout percentage
func (e *Evaluator) Enabled(ctx context.Context, name, username string, attrs map[string]any) bool {
	flag, err := e.store.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			e.log.Warn().Err(err).Str("flag", name).Msg("flag lookup failed; treating as disabled")
		}
		return false
	}
	if !flag.Enabled {
		return false
	}

	if flag.Audience != nil && *flag.Audience != "" {
		match, err := matchAudience(*flag.Audience, username, attrs)
		if err != nil {
			e.log.Warn().Err(err).Str("flag", name).Msg("audience expression failed; treating as disabled")
			return false
		}
		if !match {
			return false
		}
	}

	switch {
	case flag.Rollout <= 0:
		return false
	case flag.Rollout >= 100:
		return true
	default:
		bucket := bucketUser(username, name, e.salt)
		return bucket >= 0 && bucket < int(flag.Rollout)
	}
}

// matchAudience applies a JSON Logic expression to the user context.
// The username is always available to the rule as "username".
func matchAudience(expression, username string, attrs map[string]any) (bool, error) {
	data := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		data[k] = v
	}
	data["username"] = username

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return false, err
	}

	var result bytes.Buffer
	if err := jsonlogic.Apply(strings.NewReader(expression), bytes.NewReader(dataBytes), &result); err != nil {
		return false, err
	}

	var matched bool
	if err := json.Unmarshal(result.Bytes(), &matched); err != nil {
		// Non-boolean rule results count as no match.
		return false, nil
	}
	return matched, nil
}

// ValidateRollout checks a rollout percentage at the write boundary.
func ValidateRollout(rollout int32) error {
	if rollout < 0 || rollout > 100 {
		return ErrInvalidRollout
	}
	return nil
}

// ValidateAudience checks that an audience expression is a well-formed
// JSON Logic rule. Empty expressions are allowed and mean no audience
// restriction.
func ValidateAudience(expression string) error {
	if expression == "" {
		return nil
	}
	if !jsonlogic.IsValid(strings.NewReader(expression)) {
		return errors.New("audience is not a valid JSON Logic expression")
	}
	return nil
}
