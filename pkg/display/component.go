package display

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/notefeed/pkg/client"
	"github.com/DeBrosOfficial/notefeed/pkg/nostr"
	"github.com/DeBrosOfficial/notefeed/pkg/relay"
)

// Subscriber is the part of the client the display needs
type Subscriber interface {
	SubscribeAndHandle(ctx context.Context, filter nostr.Filter, handler client.MessageHandler, opts ...relay.SubscriptionOptions) (*client.Subscription, error)
}

// Component binds a Feed to one filter. The subscription is opened once and
// kept until Stop, however often the feed is rendered.
type Component struct {
	feed   *Feed
	filter nostr.Filter
	opts   relay.SubscriptionOptions
	logger *zap.Logger

	mu  sync.Mutex
	sub *client.Subscription
}

// NewComponent creates a component that feeds events matching filter into feed
func NewComponent(feed *Feed, filter nostr.Filter, opts relay.SubscriptionOptions, logger *zap.Logger) *Component {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Component{
		feed:   feed,
		filter: filter,
		opts:   opts,
		logger: logger,
	}
}

// Feed returns the feed the component writes to
func (c *Component) Feed() *Feed { return c.feed }

// Filter returns the component filter
func (c *Component) Filter() nostr.Filter { return c.filter }

// Start subscribes through s. Calling Start while subscribed is a no-op.
func (c *Component) Start(ctx context.Context, s Subscriber) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != nil {
		select {
		case <-c.sub.Done():
		default:
			return nil
		}
	}

	sub, err := s.SubscribeAndHandle(ctx, c.filter, c.feed.Handle, c.opts)
	if err != nil {
		return err
	}
	c.sub = sub

	c.logger.Info("Feed subscribed",
		zap.String("subscription", sub.ID()),
		zap.String("filter", nostr.Filters{c.filter}.Key()))
	return nil
}

// Done is closed when the subscription ends, or nil before Start
func (c *Component) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub == nil {
		return nil
	}
	return c.sub.Done()
}

// Stop releases the subscription
func (c *Component) Stop() error {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	if sub == nil {
		return nil
	}
	return sub.Close()
}
