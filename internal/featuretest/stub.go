package featuretest

import (
	"context"
	"sync"

	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/page"
)

// Stub is a scriptable feature for exercising the orchestration core:
// counts every lifecycle call and can be told to fail or panic at any
// entry point.
type Stub struct {
	KeyName string
	Caps    feature.Capability

	InitErr      error
	DestroyErr   error
	InitPanic    bool
	DestroyPanic bool
	HookPanic    bool

	mu           sync.Mutex
	initCalls    int
	destroyCalls int
	navCalls     []string
	msgCalls     int
	lastConfig   feature.Config
}

// New creates a stub with the given key and capabilities.
func New(key string, caps feature.Capability) *Stub {
	return &Stub{KeyName: key, Caps: caps}
}

func (s *Stub) Key() string { return s.KeyName }

func (s *Stub) Capabilities() feature.Capability { return s.Caps }

func (s *Stub) Init(ctx context.Context, cfg feature.Config) error {
	s.mu.Lock()
	s.initCalls++
	s.lastConfig = cfg
	s.mu.Unlock()
	if s.InitPanic {
		panic("stub init panic")
	}
	return s.InitErr
}

func (s *Stub) Destroy(ctx context.Context) error {
	s.mu.Lock()
	s.destroyCalls++
	s.mu.Unlock()
	if s.DestroyPanic {
		panic("stub destroy panic")
	}
	return s.DestroyErr
}

func (s *Stub) OnNavigate(ctx context.Context, logicalID string) {
	s.mu.Lock()
	s.navCalls = append(s.navCalls, logicalID)
	s.mu.Unlock()
	if s.HookPanic {
		panic("stub navigate panic")
	}
}

func (s *Stub) OnMessagesChanged(ctx context.Context, c page.Container) {
	s.mu.Lock()
	s.msgCalls++
	s.mu.Unlock()
	if s.HookPanic {
		panic("stub messages panic")
	}
}

// InitCalls reports how many times Init ran.
func (s *Stub) InitCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initCalls
}

// DestroyCalls reports how many times Destroy ran.
func (s *Stub) DestroyCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyCalls
}

// NavCalls returns the logical ids delivered so far.
func (s *Stub) NavCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.navCalls...)
}

// MsgCalls reports how many messages-changed notifications arrived.
func (s *Stub) MsgCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msgCalls
}

// LastConfig returns the config of the most recent Init.
func (s *Stub) LastConfig() feature.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastConfig
}
