package publish

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrInvalidTransition = fmt.Errorf("invalid state transition")
)

// State is the lifecycle stage of a single job.
type State string

const (
	StatePending      State = "pending"
	StateSkipped      State = "skipped"
	StateTransforming State = "transforming"
	StateEncoding     State = "encoding"
	StateUploading    State = "uploading"
	StateRecorded     State = "recorded"
	StateFailed       State = "failed"
)

type FSM struct {
	mu          sync.Mutex
	Transitions map[State]map[State]struct{}

	current State
	logger  *zap.Logger
}

type FSMOption func(*FSM)

func FSMWithLogger(logger *zap.Logger) FSMOption {
	return func(f *FSM) {
		f.logger = logger
	}
}

func NewFSM(opts ...FSMOption) *FSM {
	f := &FSM{
		current: StatePending,
		logger:  zap.NewNop(),

		Transitions: map[State]map[State]struct{}{
			StatePending: {
				StateSkipped:      {}, // already in the progress log
				StateTransforming: {},
			},
			StateTransforming: {
				StateEncoding: {},
				StateFailed:   {},
			},
			StateEncoding: {
				StateUploading: {},
				StateFailed:    {},
			},
			StateUploading: {
				StateRecorded: {},
				StateFailed:   {},
			},
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FSM) Current() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *FSM) canTransition(to State) bool {
	if _, ok := f.Transitions[f.current][to]; ok {
		return true
	}
	return false
}

func (f *FSM) Transition(to State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.canTransition(to) {
		f.logger.Error("Invalid state transition",
			zap.String("from", string(f.current)),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.current, to)
	}
	previous := f.current
	f.current = to

	f.logger.Debug("State transitioned",
		zap.String("state", string(f.current)),
		zap.String("from", string(previous)),
	)
	return nil
}

// Terminal reports whether no further transitions are possible.
func (f *FSM) Terminal() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Transitions[f.current]) == 0
}
