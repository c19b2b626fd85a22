package constant

import "time"

// Render loop
const (
	// FrameUpdateInterval is the rendering frame rate interval (~60 FPS)
	FrameUpdateInterval = 16 * time.Millisecond

	// ToastDuration is how long a transient on-screen message stays visible
	ToastDuration = 4 * time.Second
)

// Interaction timing
const (
	// IdleRefreshMin and IdleRefreshMax bound the resting frame refresh timer
	IdleRefreshMin = 3000 * time.Millisecond
	IdleRefreshMax = 7000 * time.Millisecond

	// ReactingMin and ReactingMax bound how long the reacting state lasts
	ReactingMin = 1800 * time.Millisecond
	ReactingMax = 3200 * time.Millisecond

	// SoftSoundChance is the probability of a soft sound on idle refresh
	SoftSoundChance = 0.30

	// TapDebounce is the minimum gap between accepted taps
	TapDebounce = 250 * time.Millisecond
)

// State machine
const (
	// HistorySize is the transition ring buffer capacity
	HistorySize = 10
)

// Frame pools
const (
	// FramePoolSize is the number of frames per pool (resting, reacting)
	FramePoolSize = 6

	// FrameWidth is the target sprite width in terminal columns
	FrameWidth = 40
)

// Persistence and network
const (
	// MutePrefKey is the persisted mute preference key
	MutePrefKey = "critter.muted"

	// NetworkFirstTimeout bounds a network-first fetch before cache fallback
	NetworkFirstTimeout = 3000 * time.Millisecond

	// DefaultCacheVersion identifies the offline cache generation
	DefaultCacheVersion = "critter-v1"
)
