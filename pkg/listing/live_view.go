package listing

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/pkg/changefeed"
	"github.com/kazuki11111/expiry-tracker/pkg/product"
)

type Subscriber interface {
	Subscribe(table changefeed.Table) *changefeed.Subscription
}

type LiveViewOptions struct {
	GroupBy         string
	IncludeConsumed bool
	Collapsed       *CollapseState
}

// LiveView keeps a grouped product list current by re-deriving it on start
// and on every products change. Updates coalesce so a slow reader only sees
// the latest list.
type LiveView struct {
	service product.ProductService
	feed    Subscriber
	opts    LiveViewOptions

	mu       sync.RWMutex
	snapshot domain.ProductListResponse
	updates  chan domain.ProductListResponse
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewLiveView(service product.ProductService, feed Subscriber, opts LiveViewOptions) *LiveView {
	return &LiveView{
		service: service,
		feed:    feed,
		opts:    opts,
		updates: make(chan domain.ProductListResponse, 1),
	}
}

// Start derives the first snapshot synchronously and then follows the feed
// until ctx ends or Stop is called. Starting a running view is a no-op.
func (v *LiveView) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.cancel != nil {
		v.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.done = make(chan struct{})
	v.mu.Unlock()

	sub := v.feed.Subscribe(changefeed.TableProducts)
	if err := v.refresh(ctx); err != nil {
		sub.Stop()
		cancel()
		close(v.done)
		return err
	}

	go func() {
		defer close(v.done)
		defer sub.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.C():
				if !ok {
					return
				}
				if err := v.refresh(ctx); err != nil && ctx.Err() == nil {
					log.Warnw("live view refresh failed", "error", err)
				}
			}
		}
	}()
	return nil
}

// Stop ends the subscription and waits for the follower goroutine.
func (v *LiveView) Stop() {
	v.mu.Lock()
	cancel, done := v.cancel, v.done
	v.cancel = nil
	v.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (v *LiveView) Snapshot() domain.ProductListResponse {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snapshot
}

func (v *LiveView) Updates() <-chan domain.ProductListResponse {
	return v.updates
}

func (v *LiveView) refresh(ctx context.Context) error {
	products, err := v.service.QueryActive(ctx, v.opts.IncludeConsumed)
	if err != nil {
		return err
	}
	list := Group(v.opts.GroupBy, products, v.opts.Collapsed, v.service.Today())

	v.mu.Lock()
	v.snapshot = list
	v.mu.Unlock()

	select {
	case <-v.updates:
	default:
	}
	select {
	case v.updates <- list:
	default:
	}
	return nil
}
