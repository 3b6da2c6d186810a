package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Polling defaults, matching the server's job lifetimes.
const (
	SignupPollInterval  = 3 * time.Second
	SignupPollTimeout   = 5 * time.Minute
	AnalysisPollTimeout = 10 * time.Minute
)

// ErrPollTimeout is returned when a job does not reach a terminal state
// within the poller's timeout. Wrapped errors carry the elapsed duration.
var ErrPollTimeout = errors.New("polling timed out")

// TerminalStateError is returned when the server reports a terminal
// failure state ("failed", "expired") for a polled job.
type TerminalStateError struct {
	Status string
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("job reached terminal state %q", e.Status)
}

// Backoff is an exponential wait schedule: the first wait is Initial, each
// subsequent wait doubles, capped at Max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (b Backoff) next(cur time.Duration) time.Duration {
	cur *= 2
	if cur > b.Max {
		cur = b.Max
	}
	return cur
}

// Poller repeatedly checks a status endpoint until the job reaches a
// terminal state or Timeout elapses. Interval is the fixed wait between
// checks; when Backoff is set it replaces the fixed interval. With a
// fixed interval the first check is issued immediately; a backoff
// schedule waits its initial interval before the first check, so the
// wait before check k is min(Initial*2^(k-1), Max).
type Poller struct {
	Client   *Client
	Timeout  time.Duration
	Interval time.Duration
	Backoff  *Backoff

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Wait polls path until the status field (dot-separated for nested fields,
// e.g. "analysis.status") equals success, returning the final response
// body. A status in failures ends polling immediately with a
// *TerminalStateError. Transport errors and non-2xx responses on an
// individual check are treated as transient: the attempt is skipped and
// the next one waits the usual interval.
func (p *Poller) Wait(ctx context.Context, path, statusField, success string, failures ...string) (json.RawMessage, error) {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	wait := p.Interval
	if p.Backoff != nil {
		wait = p.Backoff.Initial
	}

	start := time.Now()
	for attempt := 0; ; attempt++ {
		elapsed := time.Since(start)
		if elapsed >= p.Timeout {
			return nil, fmt.Errorf("%w after %s", ErrPollTimeout, elapsed.Round(time.Second))
		}

		if attempt > 0 || p.Backoff != nil {
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
			if p.Backoff != nil {
				wait = p.Backoff.next(wait)
			}
		}

		body, status, err := p.Client.GetJSON(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if status < 200 || status >= 300 {
			continue
		}

		switch got := statusValue(body, statusField); {
		case got == success:
			return body, nil
		default:
			for _, f := range failures {
				if got == f {
					return nil, &TerminalStateError{Status: got}
				}
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// statusValue extracts a string field from a JSON object, descending
// through dot-separated path segments. Missing or non-string fields
// yield "".
func statusValue(body []byte, field string) string {
	cur := json.RawMessage(body)
	for _, part := range strings.Split(field, ".") {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cur, &obj); err != nil {
			return ""
		}
		next, ok := obj[part]
		if !ok {
			return ""
		}
		cur = next
	}
	var s string
	if err := json.Unmarshal(cur, &s); err != nil {
		return ""
	}
	return s
}
