package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	kafkapc "github.com/ecosort/recyclesort/internal/infrastructure/kafka"
	"github.com/ecosort/recyclesort/pkg/logger"
)

// Handler processes one consumed event end-to-end. A nil return commits the
// message; an error leaves it uncommitted for redelivery.
type Handler func(ctx context.Context, event kafka.Message) error

// Controller fans consumed events out over a bounded worker pool. One
// instance per pipeline stage; workers share no state, so concurrent events
// for different object keys never interfere.
type Controller struct {
	name    string
	handler Handler
	ec      *kafkapc.EventConsumer
	logger  logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	name string,
	handler Handler,
	ec *kafkapc.EventConsumer,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	workers int,
) *Controller {
	return &Controller{
		name:           name,
		handler:        handler,
		ec:             ec,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		workers:        workers,
	}
}

func (c *Controller) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Controller(%s) - Start - controller already started", c.name)
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	tasks := make(chan kafka.Message, c.workers*2)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(tasks)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(tasks)

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				// 1. read from kafka
				event, err := c.ec.ReadEvent(c.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						c.logger.Error(err, "Controller(%s) - Start - c.ec.ReadEvent", c.name)
					}
					continue
				}

				// 2. hand off to a worker
				select {
				case tasks <- event:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

func (c *Controller) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	for event := range tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error(fmt.Errorf("panic %v", r), "Controller(%s) - worker - panic", c.name)
				}
			}()

			processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
			err := c.handler(processCtx, event)
			processCancel()
			if err != nil {
				c.logger.Error(err, "Controller(%s) - worker - c.handler", c.name)

				return
			}

			// commit only after successful processing
			commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
			err = c.ec.CommitEvent(commitCtx, event)
			commitCancel()
			if err != nil {
				c.logger.Error(err, "Controller(%s) - worker - c.ec.CommitEvent", c.name)
			}
		}()
	}
}

func (c *Controller) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		c.ec.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
