package service

import (
	"context"
	"errors"
	"sync"

	"github.com/pealhq/peal/internal/core/domain"
	"github.com/pealhq/peal/internal/core/port"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Mode selects which screen a Coordinator drives.
type Mode int

const (
	// ModeRinging covers the ringing screens on both sides: the callee's
	// incoming prompt and the caller's outgoing ring. An accepted status
	// replaces the screen with the active-call screen for the session
	// type; any terminal status navigates back.
	ModeRinging Mode = iota
	// ModeActive covers the voice and video call screens. The coordinator
	// owns the media engine while the screen is focused.
	ModeActive
)

// Coordinator owns one call-screen instance. It consumes the session
// record's snapshot stream and translates every observed status change
// into at most one local action. Snapshot handling and user-action
// methods are serialized on one mutex, and a single-use latch guarantees
// at most one Replace or Back per Coordinator lifetime regardless of
// duplicate or replayed terminal snapshots.
type Coordinator struct {
	store  port.CallRepository
	nav    port.Navigator
	engine port.MediaEngine // ModeActive only
	log    zerolog.Logger

	localUID        domain.UserID
	callID          domain.CallID
	mode            Mode
	channelFallback string
	createErr       <-chan error
	engineEvents    <-chan port.EngineEvent

	mu          sync.Mutex
	navigated   bool // single-use navigation latch
	submitting  bool // accept/reject write-dedup latch
	joined      bool
	remote      bool // remote peer present on the media channel
	degraded    bool // permissions denied, engine never joined
	confirmed   bool // first Exists=true snapshot seen
	optimistic  bool
	unsubscribe func()
	done        chan struct{}

	peer     domain.Profile
	callType domain.CallType
}

type CoordinatorConfig struct {
	Store    port.CallRepository
	Nav      port.Navigator
	Engine   port.MediaEngine
	LocalUID domain.UserID
	CallID   domain.CallID
	Mode     Mode
	// CallType is the initial hint from the route; snapshots refine it.
	CallType domain.CallType
	// Optimistic marks a caller-created session whose durable write may
	// still be in flight: missing-record snapshots are tolerated until
	// the first confirmed one arrives.
	Optimistic bool
	// CreateErr, when non-nil, delivers the outcome of the optimistic
	// create. A failure is reconciled by navigating back.
	CreateErr <-chan error
	// ChannelFallback names the media channel when the call id is absent.
	ChannelFallback string
}

func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	c := &Coordinator{
		store:           cfg.Store,
		nav:             cfg.Nav,
		engine:          cfg.Engine,
		localUID:        cfg.LocalUID,
		callID:          cfg.CallID,
		mode:            cfg.Mode,
		callType:        cfg.CallType,
		channelFallback: cfg.ChannelFallback,
		optimistic:      cfg.Optimistic,
		createErr:       cfg.CreateErr,
		done:            make(chan struct{}),
		log: log.With().
			Str("call_id", cfg.CallID.String()).
			Str("user_id", cfg.LocalUID.String()).
			Logger(),
	}
	if cfg.Engine != nil {
		c.engineEvents = cfg.Engine.Events()
	}
	return c
}

// Attach subscribes to the session record and starts handling snapshots.
// Behavior is identical whether the screen was reached organically or via
// a push notification.
func (c *Coordinator) Attach(ctx context.Context) error {
	snaps, cancel, err := c.store.Subscribe(ctx, c.callID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.unsubscribe = cancel
	c.mu.Unlock()

	go c.run(ctx, snaps)
	return nil
}

func (c *Coordinator) run(ctx context.Context, snaps <-chan port.CallSnapshot) {
	createErr := c.createErr
	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			c.handleSnapshot(ctx, snap)
		case err, ok := <-createErr:
			if !ok {
				createErr = nil
				continue
			}
			if err != nil {
				c.log.Error().Err(err).Msg("Session create failed after optimistic navigation")
				c.mu.Lock()
				c.terminateLocked(ctx)
				c.mu.Unlock()
			}
		case ev := <-c.engineEvents:
			c.handleEngineEvent(ev)
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) handleSnapshot(ctx context.Context, snap port.CallSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !snap.Exists {
		if c.optimistic && !c.confirmed {
			// Local state is ahead of the confirmed remote state: the
			// record write is still in flight.
			return
		}
		c.terminateLocked(ctx)
		return
	}

	c.confirmed = true
	sess := snap.Session
	c.peer = sess.Peer(c.localUID)
	c.callType = sess.Type

	// Terminal checks re-evaluate on every snapshot. Delivery order
	// across clients is not guaranteed, so local UI state is never
	// assumed consistent with the record.
	if sess.Status.Terminal() {
		c.terminateLocked(ctx)
		return
	}

	if sess.Status == domain.StatusAccepted && c.mode == ModeRinging {
		c.replaceLocked(ctx, sess)
	}
}

func (c *Coordinator) handleEngineEvent(ev port.EngineEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ev.Type {
	case port.EngineRemoteJoined:
		c.remote = true
	case port.EngineRemoteLeft:
		c.remote = false
	}
}

// latchLocked is the single-use navigation latch, checked and set in one
// step under the coordinator lock.
func (c *Coordinator) latchLocked() bool {
	if c.navigated {
		return false
	}
	c.navigated = true
	return true
}

func (c *Coordinator) replaceLocked(ctx context.Context, sess domain.CallSession) {
	if !c.latchLocked() {
		return
	}
	c.releaseLocked(ctx)
	c.nav.Replace(port.Route{
		Screen:   port.ScreenFor(sess.Type),
		CallID:   sess.ID,
		IsCaller: sess.Role(c.localUID) == domain.RoleCaller,
		Type:     sess.Type,
		Peer:     sess.Peer(c.localUID),
	})
}

func (c *Coordinator) terminateLocked(ctx context.Context) {
	if !c.latchLocked() {
		return
	}
	c.releaseLocked(ctx)
	c.nav.Back()
}

// releaseLocked frees everything the screen owns: the subscription and,
// on active screens, the media engine. It runs on every exit path, not
// only on clean unmount.
func (c *Coordinator) releaseLocked(ctx context.Context) {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.teardownLocked(ctx)
}

func (c *Coordinator) teardownLocked(ctx context.Context) {
	if c.engine == nil || !c.joined {
		return
	}
	if err := c.engine.Leave(ctx); err != nil {
		c.log.Error().Err(err).Msg("Engine leave failed")
	}
	c.joined = false
	c.remote = false
}

// Focus acquires the media engine for the screen. Paired with Blur: the
// screen may stay mounted while backgrounded, so acquire and release run
// on every focus change. Permission denial and join failures are logged
// and leave the screen in a degraded connecting state; the session
// status is never written from here.
func (c *Coordinator) Focus(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine == nil || c.navigated || c.joined {
		return
	}
	granted, err := c.engine.RequestPermissions(ctx, c.callType)
	if err != nil {
		c.log.Error().Err(err).Msg("Permission request failed")
		c.degraded = true
		return
	}
	if !granted {
		c.log.Warn().Msg("Media permissions denied")
		c.degraded = true
		return
	}
	channel := c.channel()
	if err := c.engine.Join(ctx, channel, c.callType == domain.CallVideo); err != nil {
		c.log.Error().Err(err).Str("channel", channel).Msg("Engine join failed")
		return
	}
	c.degraded = false
	c.joined = true
}

// Blur releases camera and microphone while the screen is backgrounded.
func (c *Coordinator) Blur(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked(ctx)
}

// Accept writes the accepted status. The submit latch deduplicates rapid
// repeated taps into exactly one write; navigation happens when the
// accepted snapshot comes back through the subscription.
func (c *Coordinator) Accept(ctx context.Context) error {
	return c.submit(ctx, domain.StatusAccepted, false)
}

// Reject writes the rejected status and navigates back immediately.
func (c *Coordinator) Reject(ctx context.Context) error {
	return c.submit(ctx, domain.StatusRejected, true)
}

func (c *Coordinator) submit(ctx context.Context, status domain.CallStatus, back bool) error {
	c.mu.Lock()
	if c.submitting || c.navigated {
		c.mu.Unlock()
		return nil
	}
	c.submitting = true
	c.mu.Unlock()

	err := c.store.UpdateStatus(ctx, c.callID, status)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		// Re-arm so the user can retry instead of leaving the screen
		// wedged behind a stuck latch.
		c.submitting = false
		c.log.Error().Err(err).Str("status", string(status)).Msg("Status write failed")
		return err
	}
	if back {
		c.terminateLocked(ctx)
	}
	return nil
}

// End terminates the call from this side. A missing record is expected
// when the peer ended first: no write is attempted and the screen still
// navigates back. Safe to invoke any number of times.
func (c *Coordinator) End(ctx context.Context) {
	c.mu.Lock()
	if c.navigated {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if c.callID != (domain.CallID{}) {
		if err := c.store.UpdateStatus(ctx, c.callID, domain.StatusEnded); err != nil && !errors.Is(err, port.ErrNotFound) {
			c.log.Error().Err(err).Msg("End write failed")
		}
	}

	c.mu.Lock()
	c.terminateLocked(ctx)
	c.mu.Unlock()
}

// Close releases the subscription and engine without navigating. Screens
// call it on unmount; it is a no-op after a terminal navigation ran.
func (c *Coordinator) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(ctx)
}

func (c *Coordinator) SetMute(muted bool) {
	if c.engine != nil {
		c.engine.MuteLocalAudio(muted)
	}
}

func (c *Coordinator) SetSpeaker(enabled bool) {
	if c.engine != nil {
		c.engine.EnableSpeaker(enabled)
	}
}

func (c *Coordinator) channel() string {
	if c.callID == (domain.CallID{}) {
		return c.channelFallback
	}
	return c.callID.String()
}

// Peer is the other party's display profile from the latest snapshot.
func (c *Coordinator) Peer() domain.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer
}

func (c *Coordinator) Type() domain.CallType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callType
}

func (c *Coordinator) Joined() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joined
}

func (c *Coordinator) RemoteJoined() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote
}

func (c *Coordinator) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}
