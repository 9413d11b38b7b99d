package appointment

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SysArcDCMS/dcms-scheduler/internal/audit"
	"github.com/SysArcDCMS/dcms-scheduler/internal/cache"
	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/infra/repository"
	"github.com/SysArcDCMS/dcms-scheduler/internal/lock"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
	"github.com/SysArcDCMS/dcms-scheduler/internal/ratelimit"
	"github.com/SysArcDCMS/dcms-scheduler/internal/timezone"
)

var clinic = time.FixedZone("clinic", 8*3600)

// Wednesday 2026-10-14, 08:00 at the clinic.
var baseNow = time.Date(2026, 10, 14, 8, 0, 0, 0, clinic)

type fixture struct {
	reg   *repository.AppointmentMemoryRepository
	cache *cache.MemorySlotCache
	clock *timezone.Fixed
	deps  Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		reg:   repository.NewAppointmentMemoryRepository(),
		cache: cache.NewMemorySlotCache(30 * time.Second),
		clock: &timezone.Fixed{At: baseNow},
	}
	f.deps = Deps{
		Registry: f.reg,
		Clock:    f.clock,
		Hours:    domain.DefaultBusinessHours(),
		Locker:   lock.NewLocalLocker(time.Second),
		Cache:    f.cache,
	}
	return f
}

func date(t *testing.T, s string) calendar.Date {
	t.Helper()
	d, err := calendar.ParseDate(s)
	require.NoError(t, err)
	return d
}

func at(t *testing.T, s string) calendar.TimeOfDay {
	t.Helper()
	v, err := calendar.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func (f *fixture) book(t *testing.T, patient, day, start string, duration, buffer int) (*models.Appointment, error) {
	t.Helper()
	return NewCreateAppointment(f.deps).Execute(context.Background(), CreateAppointmentInput{
		PatientKey: patient,
		Date:       date(t, day),
		Start:      at(t, start),
		Footprint:  domain.Footprint{DurationMinutes: duration, BufferMinutes: buffer},
		Actor:      "staff:1",
	})
}

func (f *fixture) slots(t *testing.T, day string, duration, buffer int) AvailabilityResult {
	t.Helper()
	res, err := NewGetAvailability(f.deps).Execute(context.Background(), domain.AvailabilityInput{
		Date:      date(t, day),
		Footprint: domain.Footprint{DurationMinutes: duration, BufferMinutes: buffer},
	})
	require.NoError(t, err)
	return res
}

func starts(slots []domain.TimeSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.String())
	}
	return out
}

// ======================================================
// Availability
// ======================================================

func TestAvailability_EmptyDay(t *testing.T) {
	f := newFixture(t)

	res := f.slots(t, "2026-10-15", 60, 15)

	require.NotEmpty(t, res.Slots)
	assert.False(t, res.Degraded)
	assert.Equal(t, "09:00-10:15", res.Slots[0].Interval().String())
	assert.Equal(t, "15:45-17:00", res.Slots[len(res.Slots)-1].Interval().String())
}

func TestAvailability_SameDayFloor(t *testing.T) {
	f := newFixture(t)
	f.clock.At = time.Date(2026, 10, 15, 14, 7, 0, 0, clinic)

	res := f.slots(t, "2026-10-15", 30, 0)

	require.NotEmpty(t, res.Slots)
	assert.Equal(t, "14:10", res.Slots[0].Start.String())
}

func TestAvailability_ExistingBookingTouchingWindows(t *testing.T) {
	f := newFixture(t)
	_, err := f.book(t, "p1", "2026-10-15", "10:00", 60, 15)
	require.NoError(t, err)

	got := starts(f.slots(t, "2026-10-15", 30, 0).Slots)

	assert.Contains(t, got, "09:30")
	assert.NotContains(t, got, "09:45")
	assert.NotContains(t, got, "10:45")
	assert.Contains(t, got, "11:15")
}

func TestAvailability_NeverOverlapsBooked(t *testing.T) {
	f := newFixture(t)
	_, err := f.book(t, "p1", "2026-10-15", "09:30", 45, 10)
	require.NoError(t, err)
	_, err = f.book(t, "p2", "2026-10-15", "13:00", 90, 0)
	require.NoError(t, err)

	day, err := f.reg.AppointmentsForDate(context.Background(), date(t, "2026-10-15"))
	require.NoError(t, err)

	for _, s := range f.slots(t, "2026-10-15", 40, 5).Slots {
		for i := range day {
			assert.False(t, s.Interval().Overlaps(domain.OccupiedInterval(&day[i])), "slot %s overlaps %s", s.Interval(), day[i].ID)
		}
	}
}

func TestAvailability_IdempotentAndCached(t *testing.T) {
	f := newFixture(t)
	_, err := f.book(t, "p1", "2026-10-15", "10:00", 60, 0)
	require.NoError(t, err)

	first := f.slots(t, "2026-10-15", 30, 0)
	second := f.slots(t, "2026-10-15", 30, 0)
	assert.Equal(t, first, second)

	_, err = f.cache.Get(context.Background(), cache.Key{Date: date(t, "2026-10-15"), DurationMinutes: 30})
	assert.NoError(t, err)
}

func TestAvailability_WriteInvalidatesCache(t *testing.T) {
	f := newFixture(t)

	before := starts(f.slots(t, "2026-10-15", 30, 0).Slots)
	require.Contains(t, before, "10:00")

	_, err := f.book(t, "p1", "2026-10-15", "10:00", 30, 0)
	require.NoError(t, err)

	after := starts(f.slots(t, "2026-10-15", 30, 0).Slots)
	assert.NotContains(t, after, "10:00")
}

// gatedRegistry parks AppointmentsForDate after it has taken its snapshot
// until the test lets it go.
type gatedRegistry struct {
	domain.Registry
	read    chan struct{}
	release chan struct{}
}

func (g gatedRegistry) AppointmentsForDate(ctx context.Context, d calendar.Date) ([]models.Appointment, error) {
	aps, err := g.Registry.AppointmentsForDate(ctx, d)
	g.read <- struct{}{}
	<-g.release
	return aps, err
}

func TestAvailability_QueryRacingCancelDoesNotRecacheSnapshot(t *testing.T) {
	f := newFixture(t)
	ap, err := f.book(t, "p1", "2026-10-15", "10:00", 60, 0)
	require.NoError(t, err)

	gated := gatedRegistry{Registry: f.reg, read: make(chan struct{}), release: make(chan struct{})}
	queryDeps := f.deps
	queryDeps.Registry = gated

	type result struct {
		res AvailabilityResult
		err error
	}
	day := date(t, "2026-10-15")
	done := make(chan result, 1)
	go func() {
		res, err := NewGetAvailability(queryDeps).Execute(context.Background(), domain.AvailabilityInput{
			Date:      day,
			Footprint: domain.Footprint{DurationMinutes: 60},
		})
		done <- result{res, err}
	}()

	<-gated.read

	_, err = NewCancelAppointment(f.deps).Execute(context.Background(), CancelAppointmentInput{
		AppointmentID: ap.ID,
		Reason:        "patient_request",
		Actor:         "staff:1",
	})
	require.NoError(t, err)

	close(gated.release)
	racing := <-done
	require.NoError(t, racing.err)
	assert.NotContains(t, starts(racing.res.Slots), "10:00")

	after := f.slots(t, "2026-10-15", 60, 0)
	assert.Contains(t, starts(after.Slots), "10:00")
}

func TestAvailability_StaleFloorIsRecomputed(t *testing.T) {
	f := newFixture(t)
	f.clock.At = time.Date(2026, 10, 15, 10, 2, 0, 0, clinic)

	first := f.slots(t, "2026-10-15", 30, 0)
	require.Equal(t, "10:05", first.Slots[0].Start.String())

	f.clock.At = time.Date(2026, 10, 15, 10, 21, 0, 0, clinic)
	second := f.slots(t, "2026-10-15", 30, 0)
	assert.Equal(t, "10:25", second.Slots[0].Start.String())
}

func TestAvailability_PastAndClosedDays(t *testing.T) {
	f := newFixture(t)
	f.deps.Hours.ClosedDays = []time.Weekday{time.Sunday}

	assert.Empty(t, f.slots(t, "2026-10-13", 30, 0).Slots)
	assert.Empty(t, f.slots(t, "2026-10-18", 30, 0).Slots)
}

func TestAvailability_InvalidFootprint(t *testing.T) {
	f := newFixture(t)
	_, err := NewGetAvailability(f.deps).Execute(context.Background(), domain.AvailabilityInput{
		Date:      date(t, "2026-10-15"),
		Footprint: domain.Footprint{DurationMinutes: 0},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

type brokenRegistry struct {
	domain.Registry
}

func (brokenRegistry) AppointmentsForDate(context.Context, calendar.Date) ([]models.Appointment, error) {
	return nil, domain.Unavailable("list", errors.New("connection refused"))
}

func TestAvailability_DegradesWhenRegistryDown(t *testing.T) {
	f := newFixture(t)
	f.deps.Registry = brokenRegistry{Registry: f.reg}

	res := f.slots(t, "2026-10-15", 30, 0)
	assert.True(t, res.Degraded)
	assert.Empty(t, res.Slots)

	_, err := NewInspectAvailability(f.deps).Execute(context.Background(), domain.AvailabilityInput{
		Date:      date(t, "2026-10-15"),
		Footprint: domain.Footprint{DurationMinutes: 30},
	})
	assert.ErrorIs(t, err, domain.ErrRegistryUnavailable)
}

func TestInspectAvailability_AnnotatesConflicts(t *testing.T) {
	f := newFixture(t)
	f.deps.Hours.Breaks = []calendar.Interval{{Start: at(t, "12:00"), End: at(t, "13:00")}}
	_, err := f.book(t, "p1", "2026-10-15", "10:00", 60, 15)
	require.NoError(t, err)

	slots, err := NewInspectAvailability(f.deps).Execute(context.Background(), domain.AvailabilityInput{
		Date:      date(t, "2026-10-15"),
		Footprint: domain.Footprint{DurationMinutes: 30},
	})
	require.NoError(t, err)

	reasons := map[string]string{}
	for _, s := range slots {
		reasons[s.Start.String()] = s.ConflictReason
	}
	assert.Equal(t, "conflicts with booked appointment at 10:00", reasons["09:45"])
	assert.Equal(t, "conflicts with clinic break at 12:00", reasons["12:15"])
	assert.Empty(t, reasons["09:30"])
}

// ======================================================
// Create
// ======================================================

func TestCreate_SingleActiveBooking(t *testing.T) {
	f := newFixture(t)

	first, err := f.book(t, "maria@example.com", "2026-10-15", "10:00", 60, 0)
	require.NoError(t, err)

	_, err = f.book(t, "Maria@Example.com", "2026-10-20", "10:00", 60, 0)
	require.ErrorIs(t, err, domain.ErrDuplicateActiveBooking)

	var dup *domain.DuplicateActiveBookingError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.Existing.ID)

	_, err = NewCancelAppointment(f.deps).Execute(context.Background(), CancelAppointmentInput{
		AppointmentID: first.ID,
		Actor:         "patient",
	})
	require.NoError(t, err)

	_, err = f.book(t, "maria@example.com", "2026-10-20", "10:00", 60, 0)
	assert.NoError(t, err)
}

func TestCreate_ConcurrentSameWindow(t *testing.T) {
	f := newFixture(t)

	const workers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)

	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := NewCreateAppointment(f.deps).Execute(context.Background(), CreateAppointmentInput{
				PatientKey: "patient-" + string(rune('a'+i)),
				Date:       date(t, "2026-10-15"),
				Start:      at(t, "10:00"),
				Footprint:  domain.Footprint{DurationMinutes: 60},
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)

	day, err := f.reg.AppointmentsForDate(context.Background(), date(t, "2026-10-15"))
	require.NoError(t, err)
	assert.Len(t, day, 1)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	f.deps.Hours.ClosedDays = []time.Weekday{time.Sunday}

	tests := []struct {
		name     string
		patient  string
		day      string
		start    string
		duration int
	}{
		{"missing patient", " ", "2026-10-15", "10:00", 30},
		{"zero duration", "p1", "2026-10-15", "10:00", 0},
		{"before opening", "p1", "2026-10-15", "08:30", 30},
		{"runs past closing", "p1", "2026-10-15", "16:45", 30},
		{"closed day", "p1", "2026-10-18", "10:00", 30},
		{"past date", "p1", "2026-10-13", "10:00", 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.book(t, tt.patient, tt.day, tt.start, tt.duration, 0)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCreate_OversizedFootprintIsRejected(t *testing.T) {
	f := newFixture(t)

	_, err := NewGetAvailability(f.deps).Execute(context.Background(), domain.AvailabilityInput{
		Date:      date(t, "2026-10-15"),
		Footprint: domain.Footprint{DurationMinutes: math.MaxInt},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.book(t, "a@x.io", "2026-10-15", "10:00", math.MaxInt, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.book(t, "a@x.io", "2026-10-15", "10:00", 60, math.MaxInt)
	assert.ErrorIs(t, err, domain.ErrValidation)

	aps, err := f.reg.AppointmentsForDate(context.Background(), date(t, "2026-10-15"))
	require.NoError(t, err)
	assert.Empty(t, aps)

	_, err = f.book(t, "b@x.io", "2026-10-15", "10:00", 60, 0)
	require.NoError(t, err)
	_, err = f.book(t, "c@x.io", "2026-10-15", "10:00", 60, 0)
	assert.ErrorIs(t, err, domain.ErrSlotConflict)
}

func TestCreate_StartBeforeSameDayFloor(t *testing.T) {
	f := newFixture(t)
	f.clock.At = time.Date(2026, 10, 15, 14, 7, 0, 0, clinic)

	_, err := f.book(t, "p1", "2026-10-15", "14:00", 30, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.book(t, "p1", "2026-10-15", "14:10", 30, 0)
	assert.NoError(t, err)
}

func TestCreate_BreakIsAConflict(t *testing.T) {
	f := newFixture(t)
	f.deps.Hours.Breaks = []calendar.Interval{{Start: at(t, "12:00"), End: at(t, "13:00")}}

	_, err := f.book(t, "p1", "2026-10-15", "11:45", 30, 0)
	require.ErrorIs(t, err, domain.ErrSlotConflict)

	var conflict *domain.SlotConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Empty(t, conflict.AppointmentID)
}

func TestCreate_BusyLockIsAConflict(t *testing.T) {
	f := newFixture(t)
	f.deps.Locker = lock.NewLocalLocker(10 * time.Millisecond)

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = f.deps.Locker.WithLock(context.Background(), []string{domain.DateKey(date(t, "2026-10-15"))}, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	_, err := f.book(t, "p1", "2026-10-15", "10:00", 30, 0)
	require.ErrorIs(t, err, domain.ErrSlotConflict)
	assert.Contains(t, err.Error(), "currently being booked")
}

func TestCreate_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.deps.Limiter = ratelimit.NewMemoryLimiter(1, time.Minute)

	_, err := f.book(t, "p1", "2026-10-15", "10:00", 30, 0)
	require.NoError(t, err)

	_, err = f.book(t, "p1", "2026-10-16", "10:00", 30, 0)
	assert.ErrorIs(t, err, ratelimit.ErrLimited)
}

type recorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recorder) Record(_ context.Context, ev audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func TestCreate_Audited(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	d := audit.NewDispatcher(rec)
	f.deps.Audit = d

	ap, err := f.book(t, "p1", "2026-10-15", "10:00", 30, 0)
	require.NoError(t, err)
	d.Close()

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionBooked, rec.events[0].Action)
	assert.Equal(t, ap.ID, rec.events[0].EntityID)
	assert.Equal(t, audit.EntityAppointment, rec.events[0].Entity)
	assert.Equal(t, "staff:1", rec.events[0].Actor)
}

// ======================================================
// Transitions
// ======================================================

func TestCancel_FreesSlot(t *testing.T) {
	f := newFixture(t)
	ap, err := f.book(t, "p1", "2026-10-15", "10:00", 60, 0)
	require.NoError(t, err)
	require.NotContains(t, starts(f.slots(t, "2026-10-15", 60, 0).Slots), "10:00")

	cancelled, err := NewCancelAppointment(f.deps).Execute(context.Background(), CancelAppointmentInput{
		AppointmentID: ap.ID,
		Note:          "feeling better",
		Actor:         "patient:p1",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), cancelled.Status)
	assert.Equal(t, string(domain.ReasonOther), cancelled.CancellationReason)
	assert.Equal(t, "patient:p1", cancelled.CancelledBy)

	assert.Contains(t, starts(f.slots(t, "2026-10-15", 60, 0).Slots), "10:00")

	_, err = f.book(t, "p2", "2026-10-15", "10:00", 60, 0)
	assert.NoError(t, err)
}

func TestCancel_RejectsUnknownReasonAndTerminal(t *testing.T) {
	f := newFixture(t)
	ap, err := f.book(t, "p1", "2026-10-15", "10:00", 60, 0)
	require.NoError(t, err)

	uc := NewCancelAppointment(f.deps)
	_, err = uc.Execute(context.Background(), CancelAppointmentInput{AppointmentID: ap.ID, Reason: "whim"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.Execute(context.Background(), CancelAppointmentInput{AppointmentID: ap.ID, Reason: "no_show"})
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), CancelAppointmentInput{AppointmentID: ap.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = uc.Execute(context.Background(), CancelAppointmentInput{AppointmentID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestComplete(t *testing.T) {
	f := newFixture(t)
	ap, err := f.book(t, "p1", "2026-10-15", "10:00", 60, 0)
	require.NoError(t, err)

	uc := NewCompleteAppointment(f.deps)

	_, err = uc.Execute(context.Background(), ap.ID, models.Completion{}, "dentist:7")
	assert.ErrorIs(t, err, domain.ErrValidation)

	done, err := uc.Execute(context.Background(), ap.ID, models.Completion{Services: []string{"prophylaxis"}, Notes: "no caries"}, "dentist:7")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, []string{"prophylaxis"}, done.Completion.Services)

	_, err = NewCancelAppointment(f.deps).Execute(context.Background(), CancelAppointmentInput{AppointmentID: ap.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.book(t, "p1", "2026-10-16", "10:00", 60, 0)
	assert.NoError(t, err, "a completed visit is not an active booking")
}

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	ap, err := f.book(t, "p1", "2026-10-15", "10:00", 60, 15)
	require.NoError(t, err)
	_, err = f.book(t, "p2", "2026-10-16", "13:00", 60, 0)
	require.NoError(t, err)

	uc := NewRescheduleAppointment(f.deps)

	_, err = uc.Execute(context.Background(), RescheduleAppointmentInput{
		AppointmentID: ap.ID, Date: date(t, "2026-10-16"), Start: at(t, "12:00"),
	})
	assert.ErrorIs(t, err, domain.ErrSlotConflict)

	moved, err := uc.Execute(context.Background(), RescheduleAppointmentInput{
		AppointmentID: ap.ID, Date: date(t, "2026-10-16"), Start: at(t, "14:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, date(t, "2026-10-16"), moved.Date)
	assert.Equal(t, "15:15", moved.EndTime.String())

	assert.Contains(t, starts(f.slots(t, "2026-10-15", 60, 15).Slots), "10:00")
	assert.NotContains(t, starts(f.slots(t, "2026-10-16", 60, 15).Slots), "14:00")
}

func TestReschedule_OverlappingItselfIsAllowed(t *testing.T) {
	f := newFixture(t)
	ap, err := f.book(t, "p1", "2026-10-15", "10:00", 60, 0)
	require.NoError(t, err)

	moved, err := NewRescheduleAppointment(f.deps).Execute(context.Background(), RescheduleAppointmentInput{
		AppointmentID: ap.ID, Date: date(t, "2026-10-15"), Start: at(t, "10:30"),
	})
	require.NoError(t, err)
	assert.Equal(t, "10:30", moved.StartTime.String())
}

func TestReschedule_TerminalIsRejected(t *testing.T) {
	f := newFixture(t)
	ap, err := f.book(t, "p1", "2026-10-15", "10:00", 60, 0)
	require.NoError(t, err)
	_, err = NewCancelAppointment(f.deps).Execute(context.Background(), CancelAppointmentInput{AppointmentID: ap.ID})
	require.NoError(t, err)

	_, err = NewRescheduleAppointment(f.deps).Execute(context.Background(), RescheduleAppointmentInput{
		AppointmentID: ap.ID, Date: date(t, "2026-10-16"), Start: at(t, "10:00"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ======================================================
// Reads
// ======================================================

func TestListings(t *testing.T) {
	f := newFixture(t)
	_, err := f.book(t, "p1", "2026-10-15", "10:00", 60, 0)
	require.NoError(t, err)
	_, err = f.book(t, "p2", "2026-10-31", "10:00", 60, 0)
	require.NoError(t, err)
	other, err := f.book(t, "p3", "2026-11-02", "10:00", 60, 0)
	require.NoError(t, err)

	month, err := NewListAppointmentsByMonth(f.reg).Execute(context.Background(), 2026, 10)
	require.NoError(t, err)
	assert.Len(t, month, 2)

	_, err = NewListAppointmentsByMonth(f.reg).Execute(context.Background(), 2026, 13)
	assert.ErrorIs(t, err, domain.ErrValidation)

	day, err := NewListAppointmentsByDate(f.reg).Execute(context.Background(), date(t, "2026-11-02"))
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, other.ID, day[0].ID)

	got, err := NewGetAppointment(f.reg).Execute(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, "p3", got.PatientKey)
}
