package pubsub

import (
	"sync"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/notefeed/pkg/relay"
)

// Manager shares relay subscriptions between handlers with the same filter
type Manager struct {
	pool          *relay.Pool
	subscriptions map[string]*filterSubscription
	handlerIndex  map[HandlerID]string
	logger        *zap.Logger
	closed        bool
	mu            sync.RWMutex
}

// filterSubscription is one upstream subscription and its handlers
type filterSubscription struct {
	key      string
	sub      *relay.MultiSubscription
	handlers map[HandlerID]*registeredHandler
	refCount int
	mu       sync.RWMutex
}

type registeredHandler struct {
	fn   MessageHandler
	done chan struct{}
	once sync.Once
}

func (h *registeredHandler) finish() {
	h.once.Do(func() { close(h.done) })
}

// NewManager creates a new pubsub manager over a relay pool
func NewManager(pool *relay.Pool, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		pool:          pool,
		subscriptions: make(map[string]*filterSubscription),
		handlerIndex:  make(map[HandlerID]string),
		logger:        logger,
	}
}
