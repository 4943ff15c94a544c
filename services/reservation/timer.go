package reservation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TimerController schedules the single warning and single expiration callback
// for each session namespace. The persisted timerStart/userWarned pair is the
// durable record; the in-memory handles only mirror it and can be rebuilt via
// Revalidate after the scheduler was torn down.
type TimerController struct {
	store   SessionStore
	sched   Scheduler
	clock   Clock
	ttl     time.Duration
	warning time.Duration
	logger  *zap.Logger

	mu        sync.Mutex
	handles   map[string]*timerHandle
	warnFns   []func(namespace string)
	expireFns []func(namespace string)
}

type timerHandle struct {
	cancelWarn   func()
	cancelExpire func()
}

func (h *timerHandle) stop() {
	if h.cancelWarn != nil {
		h.cancelWarn()
	}
	if h.cancelExpire != nil {
		h.cancelExpire()
	}
}

func NewTimerController(store SessionStore, sched Scheduler, clock Clock, ttl, warning time.Duration, logger *zap.Logger) *TimerController {
	return &TimerController{
		store:   store,
		sched:   sched,
		clock:   clock,
		ttl:     ttl,
		warning: warning,
		logger:  logger,
		handles: make(map[string]*timerHandle),
	}
}

// OnWarning registers a listener invoked once per countdown cycle, five
// minutes (the configured window) before expiry.
func (c *TimerController) OnWarning(fn func(namespace string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnFns = append(c.warnFns, fn)
}

// OnExpiration registers a listener invoked when a session's TTL elapses.
// The session is purged after the listeners run, whether or not they fail.
func (c *TimerController) OnExpiration(fn func(namespace string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireFns = append(c.expireFns, fn)
}

// Start arms a fresh countdown for the namespace, cancelling any schedule
// already in place.
func (c *TimerController) Start(ctx context.Context, namespace string) error {
	now := c.clock.Now()
	if err := c.store.Save(ctx, namespace, keyTimerStart, []byte(now.Format(time.RFC3339Nano))); err != nil {
		return fmt.Errorf("failed to persist timer start: %w", err)
	}
	if err := c.store.Save(ctx, namespace, keyUserWarned, []byte("false")); err != nil {
		return fmt.Errorf("failed to reset warned flag: %w", err)
	}
	c.arm(namespace, c.ttl, false)
	return nil
}

// Extend resets the countdown to the full TTL. It fails when no session
// exists for the namespace. A session whose window already elapsed while the
// scheduler was torn down is expired on the spot, never resurrected.
func (c *TimerController) Extend(ctx context.Context, namespace string) error {
	_, ok, err := c.store.Load(ctx, namespace, keyBase)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoActiveSession
	}
	startedAt, hasTimer, err := c.loadStart(ctx, namespace)
	if err != nil {
		return err
	}
	if hasTimer && c.clock.Now().Sub(startedAt) >= c.ttl {
		c.fireExpiration(namespace)
		return ErrSessionExpired
	}
	return c.Start(ctx, namespace)
}

// Cancel stops any scheduled callbacks for the namespace without firing them
// and without touching persisted state.
func (c *TimerController) Cancel(namespace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.handles[namespace]; ok {
		h.stop()
		delete(c.handles, namespace)
	}
}

// Remaining returns max(0, TTL − elapsed), or zero when no timer exists.
func (c *TimerController) Remaining(ctx context.Context, namespace string) (time.Duration, error) {
	startedAt, ok, err := c.loadStart(ctx, namespace)
	if err != nil || !ok {
		return 0, err
	}
	remaining := c.ttl - c.clock.Now().Sub(startedAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// FormattedRemaining renders the remaining window as MM:SS.
func (c *TimerController) FormattedRemaining(ctx context.Context, namespace string) (string, error) {
	remaining, err := c.Remaining(ctx, namespace)
	if err != nil {
		return "", err
	}
	total := int(remaining.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60), nil
}

// Revalidate re-arms the in-memory schedule from persisted state, used when
// the host signals the tab came back to the foreground. Sessions already past
// their TTL are expired on the spot; sessions inside the warning window that
// were never warned get the warning immediately.
func (c *TimerController) Revalidate(ctx context.Context, namespace string) error {
	startedAt, ok, err := c.loadStart(ctx, namespace)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	remaining := c.ttl - c.clock.Now().Sub(startedAt)
	if remaining <= 0 {
		c.fireExpiration(namespace)
		return nil
	}
	warned := c.loadWarned(ctx, namespace)
	c.arm(namespace, remaining, warned)
	if !warned && remaining <= c.warning {
		c.fireWarning(namespace)
	}
	return nil
}

// arm replaces the namespace's scheduled callbacks. The warning task is only
// scheduled when its offset is positive and the cycle has not warned yet.
func (c *TimerController) arm(namespace string, remaining time.Duration, warned bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.handles[namespace]; ok {
		h.stop()
	}
	h := &timerHandle{}
	if warnIn := remaining - c.warning; !warned && warnIn > 0 {
		h.cancelWarn = c.sched.After(warnIn, func() { c.fireWarning(namespace) })
	}
	h.cancelExpire = c.sched.After(remaining, func() { c.fireExpiration(namespace) })
	c.handles[namespace] = h
}

func (c *TimerController) fireWarning(namespace string) {
	ctx := context.Background()
	startedAt, ok, err := c.loadStart(ctx, namespace)
	if err != nil || !ok {
		return
	}
	// Guard against double-firing across revalidation cycles.
	if c.loadWarned(ctx, namespace) {
		return
	}
	if c.clock.Now().Sub(startedAt) >= c.ttl {
		return
	}
	if err := c.store.Save(ctx, namespace, keyUserWarned, []byte("true")); err != nil {
		c.logger.Error("failed to persist warned flag", zap.String("namespace", namespace), zap.Error(err))
	}
	for _, fn := range c.listeners(&c.warnFns) {
		c.invoke(namespace, "warning", fn)
	}
}

func (c *TimerController) fireExpiration(namespace string) {
	ctx := context.Background()
	if _, ok, err := c.store.Load(ctx, namespace, keyBase); err != nil || !ok {
		// Already purged by a concurrent path.
		c.Cancel(namespace)
		return
	}
	for _, fn := range c.listeners(&c.expireFns) {
		c.invoke(namespace, "expiration", fn)
	}
	// Purge happens regardless of listener failures.
	if err := c.store.Clear(ctx, namespace); err != nil {
		c.logger.Error("failed to purge expired session", zap.String("namespace", namespace), zap.Error(err))
	}
	c.Cancel(namespace)
	c.logger.Info("reservation session expired", zap.String("namespace", namespace))
}

func (c *TimerController) listeners(src *[]func(string)) []func(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]func(string), len(*src))
	copy(out, *src)
	return out
}

func (c *TimerController) invoke(namespace, kind string, fn func(string)) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("session listener panicked",
				zap.String("namespace", namespace),
				zap.String("kind", kind),
				zap.Any("error", r))
		}
	}()
	fn(namespace)
}

func (c *TimerController) loadStart(ctx context.Context, namespace string) (time.Time, bool, error) {
	raw, ok, err := c.store.Load(ctx, namespace, keyTimerStart)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	startedAt, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt timer start value: %w", err)
	}
	return startedAt, true, nil
}

func (c *TimerController) loadWarned(ctx context.Context, namespace string) bool {
	raw, ok, err := c.store.Load(ctx, namespace, keyUserWarned)
	return err == nil && ok && string(raw) == "true"
}
