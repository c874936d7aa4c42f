package recovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/verdantio/hydro-core/internal/infrastructure/logging"
)

// Defaults applied when Options fields are zero.
const (
	defaultThrottle    = 5 * time.Second
	defaultSettleDelay = 100 * time.Millisecond
)

// BrokerSession is the slice of the connection session the orchestrator
// drives. *session.Session satisfies it; tests provide fakes.
type BrokerSession interface {
	Connect(ctx context.Context) error
	Disconnect()
	EnsureInitialized(timeout time.Duration)
	IsConnected() bool
}

// HealthChecker probes one backing service. *influxdb.Client satisfies it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Result reports the outcome of one reconnect attempt.
//
// The two halves are independent: the broker can come back while the
// time-series store stays down, and vice versa. ErrorMessage joins the
// failures of whichever halves did not succeed; it is empty on full
// success. A Result is always well-formed, including on the throttled
// and overlap fast paths.
type Result struct {
	MQTTOk       bool
	InfluxOk     bool
	Elapsed      time.Duration
	ErrorMessage string
}

// Options configures a Service. Zero fields take defaults.
type Options struct {
	// Throttle is the minimum gap between attempts (default 5s).
	Throttle time.Duration

	// SettleDelay is the pause between disconnect and reconnect so the
	// old transport can release cleanly (default 100ms).
	SettleDelay time.Duration
}

// Service orchestrates manual reconnection across the broker session
// and the time-series store.
//
// Attempts are throttled and single-flight: a second call inside the
// throttle window (unless forced) or while an attempt is running
// returns a failed Result immediately without touching the session.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Service struct {
	session BrokerSession
	health  HealthChecker
	log     *logging.Logger

	throttle    time.Duration
	settleDelay time.Duration

	// now is injected for throttle tests.
	now func() time.Time

	mu          sync.Mutex
	inProgress  bool
	lastAttempt time.Time
	hasAttempt  bool
}

// New creates a recovery Service driving the given session.
//
// health may be nil when no time-series store is configured; the store
// half then always reports success.
func New(sess BrokerSession, health HealthChecker, opts Options, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Default()
	}
	if opts.Throttle <= 0 {
		opts.Throttle = defaultThrottle
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = defaultSettleDelay
	}

	return &Service{
		session:     sess,
		health:      health,
		log:         log.With("component", "recovery"),
		throttle:    opts.Throttle,
		settleDelay: opts.SettleDelay,
		now:         time.Now,
	}
}

// ManualReconnect performs one reconnect attempt across both halves.
//
// Fast paths (no session activity, immediate Result):
//   - an attempt is already running
//   - the last attempt was less than the throttle window ago and
//     force is false
//
// An admitted attempt records its start time before any suspension, so
// rapid re-invocations are throttled even while the attempt runs. The
// broker half disconnects, waits the settle delay, reconnects, and
// waits for subscriptions; the store half is a health probe. Each half
// succeeds or fails independently. Exactly one summary line is logged
// per admitted attempt.
func (s *Service) ManualReconnect(ctx context.Context, force bool) Result {
	s.mu.Lock()
	now := s.now()

	if s.inProgress {
		s.mu.Unlock()
		s.log.Info("reconnect rejected", "reason", "already in progress")
		return Result{ErrorMessage: "reconnect already in progress"}
	}

	if !force && s.hasAttempt {
		if since := now.Sub(s.lastAttempt); since < s.throttle {
			remaining := s.throttle - since
			s.mu.Unlock()
			s.log.Info("reconnect rejected", "reason", "throttled", "retry_in", remaining)
			return Result{ErrorMessage: fmt.Sprintf(
				"please wait %d seconds before reconnecting", ceilSeconds(remaining))}
		}
	}

	s.inProgress = true
	s.lastAttempt = now
	s.hasAttempt = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inProgress = false
		s.mu.Unlock()
	}()

	var res Result
	var failures []string

	// Broker half.
	s.session.Disconnect()
	s.settle(ctx)
	if err := s.session.Connect(ctx); err != nil {
		failures = append(failures, fmt.Sprintf("mqtt: %v", err))
	} else {
		s.session.EnsureInitialized(0)
		if s.session.IsConnected() {
			res.MQTTOk = true
		} else {
			failures = append(failures, "mqtt: not connected after reconnect")
		}
	}

	// Store half, independent of the broker outcome.
	switch {
	case s.health == nil:
		res.InfluxOk = true
	default:
		if err := s.health.HealthCheck(ctx); err != nil {
			failures = append(failures, fmt.Sprintf("influxdb: %v", err))
		} else {
			res.InfluxOk = true
		}
	}

	res.Elapsed = s.now().Sub(now)
	if len(failures) > 0 {
		res.ErrorMessage = strings.Join(failures, "; ")
	}

	s.log.Info("reconnect attempt finished",
		"mqtt_ok", res.MQTTOk,
		"influx_ok", res.InfluxOk,
		"elapsed", res.Elapsed,
		"forced", force,
		"error", res.ErrorMessage,
	)

	return res
}

// settle pauses between disconnect and reconnect, honouring ctx.
func (s *Service) settle(ctx context.Context) {
	if s.settleDelay <= 0 {
		return
	}

	timer := time.NewTimer(s.settleDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// InProgress reports whether an attempt is currently running.
func (s *Service) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProgress
}

// LastAttempt returns when the last attempt was admitted, and whether
// any attempt has been admitted at all.
func (s *Service) LastAttempt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAttempt, s.hasAttempt
}

// CanAttemptReconnect reports whether an unforced attempt would be
// admitted right now.
func (s *Service) CanAttemptReconnect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inProgress {
		return false
	}
	if !s.hasAttempt {
		return true
	}
	return s.now().Sub(s.lastAttempt) >= s.throttle
}

// ceilSeconds rounds a duration up to whole seconds for user messages.
func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
