package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fsamadov/tezbazar-backend/pkg/enums"
	pkgerrors "github.com/fsamadov/tezbazar-backend/pkg/errors"
	"github.com/fsamadov/tezbazar-backend/pkg/logger"
)

// Delays configures the demo auto-advance offsets, each measured from order
// creation.
type Delays struct {
	Preparing  time.Duration
	Delivering time.Duration
	Delivered  time.Duration
}

// Scheduler drives the demo order lifecycle: a newly placed order walks
// pending → preparing → delivering → delivered on timers unless a real
// transition gets there first. Timer callbacks go through the same Transition
// path as the API, so a stale timer simply observes a no-op or a state
// conflict and backs off.
type Scheduler struct {
	svc    Service
	delays Delays
	logg   *logger.Logger

	mu     sync.Mutex
	timers map[uuid.UUID][]*time.Timer
}

// NewScheduler builds an auto-advance scheduler. It is inert until orders are
// passed to Schedule.
func NewScheduler(svc Service, delays Delays, logg *logger.Logger) (*Scheduler, error) {
	if svc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Scheduler{
		svc:    svc,
		delays: delays,
		logg:   logg,
		timers: make(map[uuid.UUID][]*time.Timer),
	}, nil
}

// Schedule arms the timer chain for a freshly placed order. Scheduling the
// same order twice replaces the previous chain.
func (s *Scheduler) Schedule(orderID uuid.UUID) {
	steps := []struct {
		delay  time.Duration
		status enums.OrderStatus
	}{
		{s.delays.Preparing, enums.OrderStatusPreparing},
		{s.delays.Delivering, enums.OrderStatusDelivering},
		{s.delays.Delivered, enums.OrderStatusDelivered},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(orderID)

	chain := make([]*time.Timer, 0, len(steps))
	for _, step := range steps {
		status := step.status
		chain = append(chain, time.AfterFunc(step.delay, func() {
			s.fire(orderID, status)
		}))
	}
	s.timers[orderID] = chain
}

func (s *Scheduler) fire(orderID uuid.UUID, status enums.OrderStatus) {
	ctx := s.logg.WithOrderID(context.Background(), orderID.String())
	_, err := s.svc.Transition(ctx, orderID, status, nil)
	if err != nil {
		switch pkgerrors.As(err).Code() {
		case pkgerrors.CodeStateConflict, pkgerrors.CodeNotFound:
			s.logg.Info(ctx, fmt.Sprintf("auto-advance to %s skipped: %v", status, err))
		default:
			s.logg.Error(ctx, fmt.Sprintf("auto-advance to %s failed", status), err)
		}
	}

	if status == enums.OrderStatusDelivered {
		s.Cancel(orderID)
	}
}

// Cancel stops any pending timers for the order.
func (s *Scheduler) Cancel(orderID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(orderID)
}

func (s *Scheduler) stopLocked(orderID uuid.UUID) {
	for _, timer := range s.timers[orderID] {
		timer.Stop()
	}
	delete(s.timers, orderID)
}

// Stop cancels every pending timer. Called on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, chain := range s.timers {
		for _, timer := range chain {
			timer.Stop()
		}
		delete(s.timers, id)
	}
}
