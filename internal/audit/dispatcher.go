package audit

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	ActionBooked      = "appointment_booked"
	ActionRescheduled = "appointment_rescheduled"
	ActionCompleted   = "appointment_completed"
	ActionCancelled   = "appointment_cancelled"

	EntityAppointment = "appointment"
)

type Event struct {
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Metadata any
}

// Dispatcher records audit events off the request path. A full queue drops
// the event; auditing never fails a booking.
type Dispatcher struct {
	recorder Recorder
	queue    chan Event
	wg       sync.WaitGroup
	once     sync.Once
}

func NewDispatcher(recorder Recorder) *Dispatcher {
	d := &Dispatcher{
		recorder: recorder,
		queue:    make(chan Event, 100),
	}

	d.wg.Add(1)
	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for ev := range d.queue {
		if err := d.recorder.Record(context.Background(), ev); err != nil {
			log.Error().Err(err).Str("audit_action", ev.Action).Msg("audit error")
		}
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	select {
	case d.queue <- ev:
	default:
		log.Warn().Str("audit_action", ev.Action).Msg("audit queue full, dropping event")
	}
}

// Close drains the queue and stops the worker. Dispatch must not be called
// afterwards.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}
