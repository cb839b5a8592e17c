package gameserver_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/idlerpg/internal/config"
	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/challenge"
	"github.com/cory-johannsen/idlerpg/internal/game/dice"
	"github.com/cory-johannsen/idlerpg/internal/game/progression"
	"github.com/cory-johannsen/idlerpg/internal/game/tick"
	"github.com/cory-johannsen/idlerpg/internal/gameserver"
	"github.com/cory-johannsen/idlerpg/internal/snapshot"
)

type recordingSaver struct {
	mu    sync.Mutex
	saved []snapshot.Snapshot
	fail  map[string]bool
}

func (r *recordingSaver) Save(_ context.Context, snap snapshot.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[snap.Character.Name] {
		return errors.New("disk full")
	}
	r.saved = append(r.saved, snap)
	return nil
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func newEngine() *tick.Engine {
	return tick.NewEngine(balance.Default(), tick.Options{Curve: progression.GameplayCurve})
}

func driverConfig() config.GameServerConfig {
	return config.GameServerConfig{
		GRPCHost:         "127.0.0.1",
		GRPCPort:         50051,
		FrameInterval:    5 * time.Millisecond,
		SnapshotInterval: 10 * time.Millisecond,
		MaxDelta:         time.Second,
	}
}

func newDriver(t *testing.T, saver gameserver.SnapshotSaver) (*gameserver.FrameDriver, *tick.Engine) {
	t.Helper()
	eng := newEngine()
	return gameserver.NewFrameDriver(eng, challenge.DefaultRewards(), saver, driverConfig(), zap.NewNop()), eng
}

func register(t *testing.T, d *gameserver.FrameDriver, eng *tick.Engine, name string, seed uint64) {
	t.Helper()
	s, err := eng.NewGameState(name)
	require.NoError(t, err)
	require.NoError(t, d.Register(s, dice.NewSeededSource(seed)))
}

func TestNewFrameDriver_Preconditions(t *testing.T) {
	cfg := driverConfig()
	assert.Panics(t, func() {
		gameserver.NewFrameDriver(nil, challenge.DefaultRewards(), nil, cfg, zap.NewNop())
	})
	cfg.FrameInterval = 0
	assert.Panics(t, func() {
		gameserver.NewFrameDriver(newEngine(), challenge.DefaultRewards(), nil, cfg, zap.NewNop())
	})
}

func TestFrameDriver_RegisterDuplicate(t *testing.T) {
	d, eng := newDriver(t, nil)
	register(t, d, eng, "hero", 1)
	s, err := eng.NewGameState("hero")
	require.NoError(t, err)
	err = d.Register(s, dice.NewSeededSource(2))
	assert.ErrorIs(t, err, gameserver.ErrCharacterExists)
}

func TestFrameDriver_StepMatchesDirectTicks(t *testing.T) {
	d, eng := newDriver(t, nil)
	register(t, d, eng, "hero", 42)

	direct, err := eng.NewGameState("hero")
	require.NoError(t, err)
	src := dice.NewSeededSource(42)

	for i := 0; i < 500; i++ {
		frames := d.Step(0.1)
		require.Len(t, frames, 1)
		require.Equal(t, 1, frames[0].Ticks)
		events := eng.Tick(direct, 0.1, src)
		require.Equal(t, len(events), len(frames[0].Events), "frame %d", i)
	}
	v, err := d.View("hero")
	require.NoError(t, err)
	assert.Equal(t, eng.View(direct), v)
}

func TestFrameDriver_StepOrdersByNameAndClamps(t *testing.T) {
	d, eng := newDriver(t, nil)
	register(t, d, eng, "zed", 1)
	register(t, d, eng, "amy", 2)
	assert.Equal(t, []string{"amy", "zed"}, d.Names())

	frames := d.Step(100)
	require.Len(t, frames, 2)
	assert.Equal(t, "amy", frames[0].Character)
	assert.Equal(t, "zed", frames[1].Character)
	assert.Equal(t, 10, frames[0].Ticks, "one second cap holds ten 100ms ticks")
	assert.InDelta(t, 1.0, frames[0].Delta, 1e-9)

	assert.Nil(t, d.Step(-3))
	assert.Nil(t, d.Step(0.05), "half a tick runs nothing")
	frames = d.Step(0.05)
	require.Len(t, frames, 2)
	assert.Equal(t, 1, frames[0].Ticks)
}

// TestFrameDriver_JitterDoesNotChangeTrajectory: frames of uneven length that
// add up to the same wall time run the same fixed ticks as steady frames.
func TestFrameDriver_JitterDoesNotChangeTrajectory(t *testing.T) {
	steady, eng := newDriver(t, nil)
	jittered, _ := newDriver(t, nil)
	register(t, steady, eng, "hero", 77)
	register(t, jittered, eng, "hero", 77)

	steadyTicks, jitterTicks := 0, 0
	for i := 0; i < 1200; i++ {
		for _, f := range steady.Step(0.1) {
			steadyTicks += f.Ticks
		}
		dt := 0.097
		if i%2 == 1 {
			dt = 0.103
		}
		for _, f := range jittered.Step(dt) {
			jitterTicks += f.Ticks
		}
	}
	assert.Equal(t, 1200, steadyTicks)
	assert.Equal(t, steadyTicks, jitterTicks)

	a, err := steady.Snapshot("hero")
	require.NoError(t, err)
	b, err := jittered.Snapshot("hero")
	require.NoError(t, err)
	assert.Equal(t, a.RNG, b.RNG)
	assert.Equal(t, a.Character, b.Character)

	va, err := steady.View("hero")
	require.NoError(t, err)
	vb, err := jittered.View("hero")
	require.NoError(t, err)
	assert.Equal(t, va, vb)
}

func TestFrameDriver_MatchesBatchStep(t *testing.T) {
	d, eng := newDriver(t, nil)
	register(t, d, eng, "hero", 11)

	direct, err := eng.NewGameState("hero")
	require.NoError(t, err)
	src := dice.NewSeededSource(11)
	for i := 0; i < 300; i++ {
		d.Step(0.25)
	}
	// 300 frames of 250ms hold 750 ticks of the balance step.
	for i := 0; i < 750; i++ {
		eng.Tick(direct, balance.Default().TickSeconds, src)
	}
	v, err := d.View("hero")
	require.NoError(t, err)
	assert.Equal(t, eng.View(direct), v)
	snap, err := d.Snapshot("hero")
	require.NoError(t, err)
	assert.Equal(t, src.Position(), snap.RNG.Position)
}

func TestFrameDriver_SubscribersNeverBlock(t *testing.T) {
	d, eng := newDriver(t, nil)
	register(t, d, eng, "hero", 3)

	blocked := make(chan gameserver.Frame)
	buffered := make(chan gameserver.Frame, 1)
	d.Subscribe(blocked)
	d.Subscribe(buffered)

	done := make(chan struct{})
	go func() {
		d.Step(0.1)
		d.Step(0.1)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Step blocked on a full subscriber")
	}
	f := <-buffered
	assert.Equal(t, "hero", f.Character)
	assert.NotEmpty(t, f.Events)

	d.Unsubscribe(buffered)
	d.Step(0.1)
	assert.Empty(t, buffered)
}

func TestFrameDriver_UnknownCharacter(t *testing.T) {
	d, _ := newDriver(t, nil)
	_, err := d.View("ghost")
	assert.ErrorIs(t, err, gameserver.ErrUnknownCharacter)
	_, err = d.Snapshot("ghost")
	assert.ErrorIs(t, err, gameserver.ErrUnknownCharacter)
	_, err = d.Unregister("ghost")
	assert.ErrorIs(t, err, gameserver.ErrUnknownCharacter)
	_, err = d.Prestige("ghost")
	assert.ErrorIs(t, err, gameserver.ErrUnknownCharacter)
	assert.ErrorIs(t, d.ClearDiscovery("ghost", tick.DiscoveryDungeon), gameserver.ErrUnknownCharacter)
}

func TestFrameDriver_PrestigeRequiresLevel(t *testing.T) {
	d, eng := newDriver(t, nil)
	register(t, d, eng, "hero", 4)
	_, err := d.Prestige("hero")
	assert.ErrorIs(t, err, tick.ErrCannotPrestige)

	_, err = d.ResolveChallenge("hero", true)
	assert.ErrorIs(t, err, tick.ErrNoPendingChallenge)
}

func TestFrameDriver_UnregisterAndRestoreContinues(t *testing.T) {
	d, eng := newDriver(t, nil)
	register(t, d, eng, "hero", 9)
	for i := 0; i < 200; i++ {
		d.Step(0.1)
	}
	snap, err := d.Unregister("hero")
	require.NoError(t, err)
	assert.Empty(t, d.Names())

	// A reference copy restored from the same snapshot must follow the same path.
	ref, refSrc := snap.Restore(eng)
	require.NoError(t, d.Restore(snap))
	for i := 0; i < 200; i++ {
		d.Step(0.1)
		eng.Tick(ref, 0.1, refSrc)
	}
	v, err := d.View("hero")
	require.NoError(t, err)
	assert.Equal(t, eng.View(ref), v)
}

func TestFrameDriver_SaveAllReportsEveryFailure(t *testing.T) {
	saver := &recordingSaver{fail: map[string]bool{"bad": true}}
	d, eng := newDriver(t, saver)
	register(t, d, eng, "bad", 1)
	register(t, d, eng, "good", 2)

	err := d.SaveAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	require.Equal(t, 1, saver.count())
	assert.Equal(t, "good", saver.saved[0].Character.Name)
}

func TestFrameDriver_SaveAllWithoutSaver(t *testing.T) {
	d, eng := newDriver(t, nil)
	register(t, d, eng, "hero", 1)
	assert.NoError(t, d.SaveAll(context.Background()))
}

func TestFrameDriver_RunTicksAndSaves(t *testing.T) {
	saver := &recordingSaver{}
	d, eng := newDriver(t, saver)
	register(t, d, eng, "hero", 5)

	frames := make(chan gameserver.Frame, 64)
	d.Subscribe(frames)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
	}
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.GreaterOrEqual(t, saver.count(), 1, "final save runs on shutdown")
}
