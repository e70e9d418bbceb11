package scroll

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/codecraftpk/craftsite/internal/schedule"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type positions struct {
	mu   sync.Mutex
	list []int
}

func (p *positions) sink(y int) {
	p.mu.Lock()
	p.list = append(p.list, y)
	p.mu.Unlock()
}

func (p *positions) last() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.list) == 0 {
		return 0, false
	}
	return p.list[len(p.list)-1], true
}

func TestExpoOut(t *testing.T) {
	assert.InDelta(t, 0.001, ExpoOut(0), 1e-9)
	assert.InDelta(t, 1.001-math.Pow(2, -5), ExpoOut(0.5), 1e-9)
	assert.Equal(t, 1.0, ExpoOut(1))
	assert.Equal(t, 1.0, ExpoOut(2))

	prev := ExpoOut(0)
	for i := 1; i <= 100; i++ {
		cur := ExpoOut(float64(i) / 100)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestEngine_AnimatesToTarget(t *testing.T) {
	out := &positions{}
	engine := NewEngine(DefaultEngineOptions(), out.sink)

	engine.ScrollTo(1000)
	require.True(t, engine.Animating())

	engine.Frame(epoch)
	engine.Frame(epoch.Add(600 * time.Millisecond))
	mid := engine.Position()
	assert.Greater(t, mid, 900, "expo-out covers most of the distance by half time")
	assert.Less(t, mid, 1000)

	engine.Frame(epoch.Add(1200 * time.Millisecond))
	assert.Equal(t, 1000, engine.Position())
	assert.False(t, engine.Animating())

	last, ok := out.last()
	require.True(t, ok)
	assert.Equal(t, 1000, last)

	count := len(out.list)
	engine.Frame(epoch.Add(2 * time.Second))
	assert.Len(t, out.list, count, "idle frames emit nothing")
}

func TestEngine_RetargetStartsFromCurrentPosition(t *testing.T) {
	engine := NewEngine(EngineOptions{Duration: time.Second, Easing: func(t float64) float64 { return t }}, nil)

	engine.ScrollTo(100)
	engine.Frame(epoch)
	engine.Frame(epoch.Add(500 * time.Millisecond))
	require.Equal(t, 50, engine.Position())

	engine.ScrollTo(0)
	engine.Frame(epoch.Add(500 * time.Millisecond))
	engine.Frame(epoch.Add(1000 * time.Millisecond))
	assert.Equal(t, 25, engine.Position())
}

func TestEngine_SyncAndDestroy(t *testing.T) {
	engine := NewEngine(DefaultEngineOptions(), nil)

	engine.Sync(300)
	assert.Equal(t, 300, engine.Position())

	engine.Destroy()
	assert.True(t, engine.Destroyed())
	engine.ScrollTo(10)
	engine.Frame(epoch)
	assert.False(t, engine.Animating())
	assert.Equal(t, 300, engine.Position())
}

func TestEnhancer_DefersInitialisation(t *testing.T) {
	clock := schedule.NewManual(epoch)
	out := &positions{}
	enhancer := NewEnhancer(clock, DefaultOptions(), out.sink)

	enhancer.Mount()
	assert.False(t, enhancer.Ready())
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(99 * time.Millisecond)
	assert.False(t, enhancer.Ready())

	clock.Advance(time.Millisecond)
	assert.True(t, enhancer.Ready())
	assert.Equal(t, 1, clock.Pending(), "only the frame loop remains")

	enhancer.ScrollTo(500)
	clock.Advance(2 * time.Second)
	last, ok := out.last()
	require.True(t, ok)
	assert.Equal(t, 500, last)

	enhancer.Unmount()
	assert.Equal(t, 0, clock.Pending())
	assert.False(t, enhancer.Ready())
}

func TestEnhancer_UnmountBeforeInit(t *testing.T) {
	clock := schedule.NewManual(epoch)
	enhancer := NewEnhancer(clock, DefaultOptions(), nil)

	enhancer.Mount()
	enhancer.Unmount()
	enhancer.Unmount()

	assert.Equal(t, 0, clock.Pending())
	clock.Advance(time.Second)
	assert.False(t, enhancer.Ready())
}

func TestEnhancer_ScrollBeforeInitJumps(t *testing.T) {
	clock := schedule.NewManual(epoch)
	out := &positions{}
	enhancer := NewEnhancer(clock, DefaultOptions(), out.sink)
	enhancer.Mount()
	defer enhancer.Unmount()

	enhancer.ScrollTo(420)
	last, _ := out.last()
	assert.Equal(t, 420, last)

	clock.Advance(100 * time.Millisecond)
	enhancer.ScrollTo(820)
	clock.Advance(1300 * time.Millisecond)
	last, _ = out.last()
	assert.Equal(t, 820, last)
	assert.Greater(t, len(out.list), 2, "animated in several frames from the jumped position")
}

func TestEnhancer_RepeatedMountCycles(t *testing.T) {
	clock := schedule.NewManual(epoch)
	enhancer := NewEnhancer(clock, DefaultOptions(), nil)

	for i := 0; i < 10; i++ {
		enhancer.Mount()
		clock.Advance(150 * time.Millisecond)
		enhancer.Unmount()
	}
	assert.Equal(t, 0, clock.Pending())
}

func TestEnhancer_RealClock(t *testing.T) {
	out := &positions{}
	opts := DefaultOptions()
	opts.InitDelay = time.Millisecond
	opts.FrameInterval = time.Millisecond
	opts.Engine.Duration = 20 * time.Millisecond
	enhancer := NewEnhancer(schedule.Real(), opts, out.sink)
	enhancer.Mount()
	defer enhancer.Unmount()

	require.Eventually(t, enhancer.Ready, time.Second, time.Millisecond)
	enhancer.ScrollTo(200)
	require.Eventually(t, func() bool {
		last, ok := out.last()
		return ok && last == 200
	}, time.Second, time.Millisecond)
}
