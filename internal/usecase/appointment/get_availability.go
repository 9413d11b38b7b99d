package appointment

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/SysArcDCMS/dcms-scheduler/internal/cache"
	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/observability"
)

// AvailabilityResult is what booking clients see. Degraded is set when the
// registry could not be read and the empty list is not authoritative.
type AvailabilityResult struct {
	Date     calendar.Date
	Slots    []domain.TimeSlot
	Degraded bool
}

type GetAvailability struct {
	deps Deps
}

func NewGetAvailability(deps Deps) *GetAvailability {
	return &GetAvailability{deps: deps.withDefaults()}
}

// Execute lists the bookable windows for one footprint on one date. It
// takes no lock and never writes to the registry.
func (uc *GetAvailability) Execute(
	ctx context.Context,
	in domain.AvailabilityInput,
) (res AvailabilityResult, err error) {

	ctx, span := observability.StartSpan(ctx, "appointment.availability",
		attribute.String("date", in.Date.String()),
		attribute.Int("duration_minutes", in.Footprint.DurationMinutes),
		attribute.Int("buffer_minutes", in.Footprint.BufferMinutes),
	)
	defer func() { observability.EndSpan(span, err) }()

	logger := observability.LoggerFromContext(ctx)
	res = AvailabilityResult{Date: in.Date, Slots: []domain.TimeSlot{}}

	now := uc.deps.now()
	candidates, err := domain.GenerateSlots(in, uc.deps.Hours, now)
	if err != nil {
		return res, err
	}

	floor, open := domain.EarliestStart(in.Date, uc.deps.Hours, now)
	if !open {
		return res, nil
	}

	// --------------------------------------------------
	// Cache
	// --------------------------------------------------
	key := cache.Key{
		Date:            in.Date,
		DurationMinutes: in.Footprint.DurationMinutes,
		BufferMinutes:   in.Footprint.BufferMinutes,
	}

	entry, cacheErr := uc.deps.Cache.Get(ctx, key)
	switch {
	case cacheErr == nil && entry.Floor == floor:
		uc.deps.Metrics.RecordCache(ctx, true)
		res.Slots = entry.Slots
		return res, nil
	case cacheErr != nil && !errors.Is(cacheErr, cache.ErrMiss):
		logger.Warn().Err(cacheErr).Str("cache_key", key.String()).Msg("slot cache read failed")
	}
	uc.deps.Metrics.RecordCache(ctx, false)

	// Read before the registry: a write landing after this point bumps the
	// generation and the entry below is never served.
	gen, genErr := uc.deps.Cache.Generation(ctx, in.Date)
	if genErr != nil {
		logger.Warn().Err(genErr).Str("date", in.Date.String()).Msg("slot cache generation read failed")
	}

	// --------------------------------------------------
	// Compute
	// --------------------------------------------------
	existing, regErr := uc.deps.Registry.AppointmentsForDate(ctx, in.Date)
	if regErr != nil {
		logger.Error().Err(regErr).Str("date", in.Date.String()).Msg("registry unavailable, returning degraded availability")
		span.RecordError(regErr)
		res.Degraded = true
		return res, nil
	}

	res.Slots = domain.Available(candidates, domain.Occupancies(existing, uc.deps.Hours, ""))

	if genErr == nil {
		entry := cache.Entry{Slots: res.Slots, Floor: floor, Generation: gen}
		if err := uc.deps.Cache.Set(ctx, key, entry); err != nil {
			logger.Warn().Err(err).Str("cache_key", key.String()).Msg("slot cache write failed")
		}
	}

	return res, nil
}

// ======================================================
// DIAGNOSTIC VIEW
// ======================================================

type InspectAvailability struct {
	deps Deps
}

func NewInspectAvailability(deps Deps) *InspectAvailability {
	return &InspectAvailability{deps: deps.withDefaults()}
}

// Execute returns every candidate window with its conflict reason. It
// bypasses the cache and surfaces registry errors.
func (uc *InspectAvailability) Execute(
	ctx context.Context,
	in domain.AvailabilityInput,
) ([]domain.TimeSlot, error) {

	ctx, span := observability.StartSpan(ctx, "appointment.availability.inspect",
		attribute.String("date", in.Date.String()),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	candidates, err := domain.GenerateSlots(in, uc.deps.Hours, uc.deps.now())
	if err != nil {
		return nil, err
	}

	existing, err := uc.deps.Registry.AppointmentsForDate(ctx, in.Date)
	if err != nil {
		return nil, err
	}

	return domain.Annotate(candidates, domain.Occupancies(existing, uc.deps.Hours, "")), nil
}
