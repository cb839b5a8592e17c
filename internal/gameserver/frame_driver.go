package gameserver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/idlerpg/internal/config"
	"github.com/cory-johannsen/idlerpg/internal/game/challenge"
	"github.com/cory-johannsen/idlerpg/internal/game/dice"
	"github.com/cory-johannsen/idlerpg/internal/game/tick"
	"github.com/cory-johannsen/idlerpg/internal/snapshot"
)

// ErrUnknownCharacter is returned when an operation names a character that is not registered.
var ErrUnknownCharacter = errors.New("character not registered")

// ErrCharacterExists is returned by Register when the name is already taken.
var ErrCharacterExists = errors.New("character already registered")

// SnapshotSaver persists character snapshots.
type SnapshotSaver interface {
	Save(ctx context.Context, snap snapshot.Snapshot) error
}

// Frame is what subscribers receive for each character ticked in a frame.
// Ticks fixed steps were run; Delta is the game time they cover.
type Frame struct {
	Character string
	Ticks     int
	Delta     float64
	Events    []tick.Event
	View      tick.View
}

type entry struct {
	state  *tick.GameState
	src    *dice.SeededSource
	roller *dice.Roller
}

// FrameDriver credits elapsed wall time to an accumulator and, each frame,
// ticks every registered character once per whole balance tick it holds, then
// fans the resulting events out to subscribers.
//
// Invariant: every Tick call uses the balance tick step, so a character's
// trajectory depends only on its seed and the number of ticks run, never on
// frame timing. Each character owns its random stream; characters are ticked
// in name order.
type FrameDriver struct {
	engine   *tick.Engine
	rewards  challenge.RewardSource
	saver    SnapshotSaver
	logger   *zap.Logger
	interval time.Duration
	saveEach time.Duration
	maxDelta float64
	step     time.Duration
	stepSecs float64
	now      func() time.Time

	mu          sync.Mutex
	pending     time.Duration
	characters  map[string]*entry
	subscribers map[chan<- Frame]struct{}
}

// NewFrameDriver returns a stopped driver.
//
// Precondition: engine, rewards and logger must be non-nil; cfg.FrameInterval > 0;
// the engine's TickSeconds is at least one nanosecond.
// saver may be nil, which disables snapshot saving.
func NewFrameDriver(engine *tick.Engine, rewards challenge.RewardSource, saver SnapshotSaver, cfg config.GameServerConfig, logger *zap.Logger) *FrameDriver {
	if engine == nil || rewards == nil || logger == nil {
		panic("gameserver.NewFrameDriver: engine, rewards and logger must be non-nil")
	}
	if cfg.FrameInterval <= 0 {
		panic("gameserver.NewFrameDriver: frame interval must be > 0")
	}
	stepSecs := engine.Config().TickSeconds
	step := time.Duration(math.Round(stepSecs * float64(time.Second)))
	if step <= 0 {
		panic("gameserver.NewFrameDriver: tick step must be >= 1ns")
	}
	return &FrameDriver{
		engine:      engine,
		rewards:     rewards,
		saver:       saver,
		logger:      logger,
		interval:    cfg.FrameInterval,
		saveEach:    cfg.SnapshotInterval,
		maxDelta:    cfg.MaxDelta.Seconds(),
		step:        step,
		stepSecs:    stepSecs,
		now:         time.Now,
		characters:  make(map[string]*entry),
		subscribers: make(map[chan<- Frame]struct{}),
	}
}

// Register adds a character with its random stream.
//
// Precondition: s and src must be non-nil.
// Postcondition: returns ErrCharacterExists if the name is already registered.
func (d *FrameDriver) Register(s *tick.GameState, src *dice.SeededSource) error {
	name := s.Character.Name
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.characters[name]; ok {
		return fmt.Errorf("registering %q: %w", name, ErrCharacterExists)
	}
	d.characters[name] = &entry{
		state:  s,
		src:    src,
		roller: dice.NewLoggedRoller(src, d.logger.With(zap.String("character", name))),
	}
	d.logger.Info("character registered",
		zap.String("character", name),
		zap.Uint64("seed", src.Seed()),
	)
	return nil
}

// Restore registers the character captured in snap.
func (d *FrameDriver) Restore(snap snapshot.Snapshot) error {
	s, src := snap.Restore(d.engine)
	return d.Register(s, src)
}

// Unregister removes a character and returns its final snapshot.
func (d *FrameDriver) Unregister(name string) (snapshot.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.characters[name]
	if !ok {
		return snapshot.Snapshot{}, fmt.Errorf("unregistering %q: %w", name, ErrUnknownCharacter)
	}
	delete(d.characters, name)
	return snapshot.Capture(e.state, e.src, d.now()), nil
}

// Names returns the registered character names in tick order.
func (d *FrameDriver) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.namesLocked()
}

func (d *FrameDriver) namesLocked() []string {
	names := make([]string, 0, len(d.characters))
	for name := range d.characters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// View returns a read-only copy of a character.
func (d *FrameDriver) View(name string) (tick.View, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.characters[name]
	if !ok {
		return tick.View{}, fmt.Errorf("viewing %q: %w", name, ErrUnknownCharacter)
	}
	return d.engine.View(e.state), nil
}

// Snapshot captures a character without removing it.
func (d *FrameDriver) Snapshot(name string) (snapshot.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.characters[name]
	if !ok {
		return snapshot.Snapshot{}, fmt.Errorf("capturing %q: %w", name, ErrUnknownCharacter)
	}
	return snapshot.Capture(e.state, e.src, d.now()), nil
}

// Subscribe registers ch to receive every Frame.
// If ch is full, the frame is dropped for that subscriber (non-blocking).
//
// Precondition: ch must not be nil.
func (d *FrameDriver) Subscribe(ch chan<- Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[ch] = struct{}{}
}

// Unsubscribe removes ch from the subscriber list.
func (d *FrameDriver) Unsubscribe(ch chan<- Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.subscribers, ch)
}

// Step credits dt seconds of elapsed time, clamped to the configured maximum
// delta, and runs as many whole fixed ticks as the accumulated time holds. The
// remainder carries into the next Step. One Frame per character is published
// when at least one tick ran.
//
// Postcondition: returns the published frames in tick order, or nil when the
// accumulated time is still short of one tick.
func (d *FrameDriver) Step(dt float64) []Frame {
	dt = tick.ClampDelta(dt, d.maxDelta)

	d.mu.Lock()
	d.pending += time.Duration(math.Round(dt * float64(time.Second)))
	ticks := int(d.pending / d.step)
	d.pending -= time.Duration(ticks) * d.step
	if ticks == 0 {
		d.mu.Unlock()
		return nil
	}

	frames := make([]Frame, 0, len(d.characters))
	for _, name := range d.namesLocked() {
		e := d.characters[name]
		var events []tick.Event
		for range ticks {
			events = append(events, d.engine.Tick(e.state, d.stepSecs, e.roller)...)
		}
		frames = append(frames, Frame{
			Character: name,
			Ticks:     ticks,
			Delta:     float64(ticks) * d.stepSecs,
			Events:    events,
			View:      d.engine.View(e.state),
		})
	}
	subs := make([]chan<- Frame, 0, len(d.subscribers))
	for ch := range d.subscribers {
		subs = append(subs, ch)
	}
	d.mu.Unlock()

	for _, f := range frames {
		d.publish(subs, f)
	}
	return frames
}

func (d *FrameDriver) publish(subs []chan<- Frame, f Frame) {
	for _, ch := range subs {
		select {
		case ch <- f:
		default:
		}
	}
}

// Prestige performs a prestige reset for name and publishes the event.
func (d *FrameDriver) Prestige(name string) (tick.Event, error) {
	return d.act(name, func(e *entry) ([]tick.Event, error) {
		ev, err := d.engine.Prestige(e.state)
		if err != nil {
			return nil, err
		}
		return []tick.Event{ev}, nil
	})
}

// ResolveChallenge settles the pending challenge of name using the driver's rewards.
func (d *FrameDriver) ResolveChallenge(name string, won bool) ([]tick.Event, error) {
	var out []tick.Event
	_, err := d.act(name, func(e *entry) ([]tick.Event, error) {
		events, err := d.engine.ResolveChallenge(e.state, won, d.rewards, e.roller)
		out = events
		return events, err
	})
	return out, err
}

// ClearDiscovery dismisses a discovery of name.
func (d *FrameDriver) ClearDiscovery(name string, disc tick.Discovery) error {
	_, err := d.act(name, func(e *entry) ([]tick.Event, error) {
		d.engine.ClearDiscovery(e.state, disc)
		return nil, nil
	})
	return err
}

// act runs fn against a registered character and publishes any events it returns.
// The first event is returned for single-event actions.
func (d *FrameDriver) act(name string, fn func(*entry) ([]tick.Event, error)) (tick.Event, error) {
	d.mu.Lock()
	e, ok := d.characters[name]
	if !ok {
		d.mu.Unlock()
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownCharacter)
	}
	events, err := fn(e)
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	f := Frame{Character: name, Events: events, View: d.engine.View(e.state)}
	subs := make([]chan<- Frame, 0, len(d.subscribers))
	for ch := range d.subscribers {
		subs = append(subs, ch)
	}
	d.mu.Unlock()

	if len(events) == 0 {
		return nil, nil
	}
	d.publish(subs, f)
	return events[0], nil
}

// SaveAll writes a snapshot of every registered character. Every character is
// attempted; the returned error joins all failures.
func (d *FrameDriver) SaveAll(ctx context.Context) error {
	if d.saver == nil {
		return nil
	}
	d.mu.Lock()
	snaps := make([]snapshot.Snapshot, 0, len(d.characters))
	now := d.now()
	for _, name := range d.namesLocked() {
		e := d.characters[name]
		snaps = append(snaps, snapshot.Capture(e.state, e.src, now))
	}
	d.mu.Unlock()

	var errs []error
	for _, snap := range snaps {
		if err := d.saver.Save(ctx, snap); err != nil {
			d.logger.Warn("snapshot save failed",
				zap.String("character", snap.Character.Name),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("saving %q: %w", snap.Character.Name, err))
			continue
		}
		d.logger.Debug("snapshot saved",
			zap.String("character", snap.Character.Name),
			zap.String("snapshot_id", snap.ID),
			zap.Uint64("rng_position", snap.RNG.Position),
		)
	}
	return errors.Join(errs...)
}

// Run drives frames until ctx is cancelled, crediting each frame with the real
// time elapsed since the previous one. Frame jitter changes only how ticks are
// grouped into frames, not how many run. Snapshots are saved every snapshot
// interval and once more on shutdown.
//
// Postcondition: returns nil after ctx is cancelled and the final save is attempted.
func (d *FrameDriver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	var saves <-chan time.Time
	if d.saver != nil && d.saveEach > 0 {
		saveTicker := time.NewTicker(d.saveEach)
		defer saveTicker.Stop()
		saves = saveTicker.C
	}

	d.logger.Info("frame driver started",
		zap.Duration("frame_interval", d.interval),
		zap.Duration("snapshot_interval", d.saveEach),
	)
	last := d.now()
	for {
		select {
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			err := d.SaveAll(saveCtx)
			cancel()
			if err != nil {
				d.logger.Error("final snapshot save failed", zap.Error(err))
			}
			d.logger.Info("frame driver stopped")
			return nil
		case <-ticker.C:
			now := d.now()
			d.Step(now.Sub(last).Seconds())
			last = now
		case <-saves:
			if err := d.SaveAll(ctx); err != nil && ctx.Err() == nil {
				d.logger.Warn("periodic snapshot save incomplete", zap.Error(err))
			}
		}
	}
}
