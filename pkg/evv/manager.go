package evv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arnavshah/carematch-api/pkg/geo"
	"github.com/arnavshah/carematch-api/pkg/models"
	"github.com/arnavshah/carematch-api/pkg/notify"
)

// Defaults applied to new visits
const (
	DefaultServiceType       = "personal_care"
	DefaultScheduledDuration = 8 * time.Hour
)

// Options configures a Manager. Zero values fall back to the defaults.
type Options struct {
	ServiceType       string
	ScheduledDuration time.Duration
	Policy            VerificationPolicy
	Notifier          notify.Queue
	Logger            *zerolog.Logger
	Now               func() time.Time
	NewID             func() string
}

// Manager drives the clock-in / clock-out lifecycle of EVV shifts
type Manager struct {
	store       Store
	serviceType string
	duration    time.Duration
	policy      VerificationPolicy
	notifier    notify.Queue
	logger      zerolog.Logger
	now         func() time.Time
	newID       func() string
}

// ClockInRequest starts a visit with a client
type ClockInRequest struct {
	WorkerID string
	ClientID string
	Location geo.Reading
}

// ClockOutRequest ends the worker's active visit
type ClockOutRequest struct {
	WorkerID string
	Location geo.Reading
	Notes    string
}

// Result of a lifecycle transition. Warnings report anomalies that did not
// undo the transition, such as a log entry that could not be written.
type Result struct {
	Shift    *models.EVVShift    `json:"shift"`
	Entry    *models.EVVLogEntry `json:"log_entry,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

// NewManager creates a lifecycle manager on top of store
func NewManager(store Store, opts Options) *Manager {
	m := &Manager{
		store:       store,
		serviceType: opts.ServiceType,
		duration:    opts.ScheduledDuration,
		policy:      opts.Policy,
		notifier:    opts.Notifier,
		now:         opts.Now,
		newID:       opts.NewID,
	}
	if m.serviceType == "" {
		m.serviceType = DefaultServiceType
	}
	if m.duration <= 0 {
		m.duration = DefaultScheduledDuration
	}
	if m.policy == nil {
		m.policy = AlwaysVerified{}
	}
	if opts.Logger != nil {
		m.logger = opts.Logger.With().Str("component", "evv").Logger()
	} else {
		m.logger = log.With().Str("component", "evv").Logger()
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

// ClockIn opens a new active shift for the worker at the given client
func (m *Manager) ClockIn(ctx context.Context, req ClockInRequest) (*Result, error) {
	if req.WorkerID == "" {
		return nil, ErrWorkerRequired
	}
	if err := geo.Validate(req.Location.Coords); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocationRequired, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := m.store.GetClient(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrClientNotFound, req.ClientID)
		}
		return nil, fmt.Errorf("%w: %v", ErrClockInFailed, err)
	}
	if !client.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrClientInactive, req.ClientID)
	}

	if existing, err := m.store.ActiveShift(ctx, req.WorkerID); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrActiveShiftExists, existing.ID)
	} else if !errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrClockInFailed, err)
	}

	now := m.now()
	lat, lng := req.Location.Coords.Lat, req.Location.Coords.Lng
	shift := &models.EVVShift{
		ID:               m.newID(),
		WorkerID:         req.WorkerID,
		ClientID:         client.ID,
		FacilityName:     client.Name,
		ShiftDate:        now.Format("2006-01-02"),
		ScheduledStart:   now,
		ScheduledEnd:     now.Add(m.duration),
		ActualClockIn:    &now,
		ClockInLatitude:  &lat,
		ClockInLongitude: &lng,
		ClockInAddress:   optional(req.Location.Address),
		Status:           models.ShiftActive,
		MedicaidID:       client.MedicaidID,
		ServiceType:      m.serviceType,
	}

	// last point at which an abort leaves nothing behind
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.store.CreateActiveShift(ctx, shift); err != nil {
		if errors.Is(err, ErrActiveShiftExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrClockInFailed, err)
	}

	m.logger.Info().
		Str("worker_id", shift.WorkerID).
		Str("client_id", shift.ClientID).
		Str("shift_id", shift.ID).
		Msg("clocked in")

	res := &Result{Shift: shift}
	res.Entry = m.appendLog(ctx, res, shift, models.EventClockIn, now, req.Location, m.policy.Verify(client, req.Location))
	m.notify(ctx, shift, notify.KindShiftStarted, "Shift started",
		fmt.Sprintf("Clocked in with %s at %s", client.Name, now.Format(time.Kitchen)))
	return res, nil
}

// ClockOut completes the worker's active shift
func (m *Manager) ClockOut(ctx context.Context, req ClockOutRequest) (*Result, error) {
	if req.WorkerID == "" {
		return nil, ErrWorkerRequired
	}
	if err := geo.Validate(req.Location.Coords); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocationRequired, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shift, err := m.store.ActiveShift(ctx, req.WorkerID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrNoActiveShift
		}
		return nil, fmt.Errorf("%w: %v", ErrClockOutFailed, err)
	}

	now := m.now()
	if shift.ActualClockIn != nil && !now.After(*shift.ActualClockIn) {
		now = shift.ActualClockIn.Add(time.Microsecond)
	}
	lat, lng := req.Location.Coords.Lat, req.Location.Coords.Lng

	done := *shift
	done.Status = models.ShiftCompleted
	done.ActualClockOut = &now
	done.ClockOutLatitude = &lat
	done.ClockOutLongitude = &lng
	done.ClockOutAddress = optional(req.Location.Address)
	done.Notes = optional(req.Notes)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.store.CompleteShift(ctx, &done); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrNoActiveShift
		}
		return nil, fmt.Errorf("%w: %v", ErrClockOutFailed, err)
	}

	event := m.logger.Info().
		Str("worker_id", done.WorkerID).
		Str("shift_id", done.ID)
	if done.ActualClockIn != nil {
		event = event.Dur("duration", now.Sub(*done.ActualClockIn))
	}
	event.Msg("clocked out")

	client, err := m.store.GetClient(ctx, done.ClientID)
	if err != nil {
		m.logger.Debug().Err(err).Str("client_id", done.ClientID).Msg("client lookup failed at clock-out")
	}

	res := &Result{Shift: &done}
	res.Entry = m.appendLog(ctx, res, &done, models.EventClockOut, now, req.Location, m.policy.Verify(client, req.Location))
	m.notify(ctx, &done, notify.KindShiftCompleted, "Shift completed",
		fmt.Sprintf("Clocked out at %s", now.Format(time.Kitchen)))
	return res, nil
}

// ActiveShift returns the worker's active shift or ErrNoActiveShift
func (m *Manager) ActiveShift(ctx context.Context, workerID string) (*models.EVVShift, error) {
	if workerID == "" {
		return nil, ErrWorkerRequired
	}
	shift, err := m.store.ActiveShift(ctx, workerID)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, ErrNoActiveShift
	}
	return shift, err
}

// Logs returns the audit trail of one of the worker's shifts, oldest first
func (m *Manager) Logs(ctx context.Context, workerID, shiftID string) ([]models.EVVLogEntry, error) {
	shift, err := m.store.GetShift(ctx, shiftID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	if shift.WorkerID != workerID {
		return nil, ErrShiftNotFound
	}
	return m.store.ListLogs(ctx, shiftID)
}

// appendLog writes the audit entry for a transition that already happened.
// It is not subject to the caller's cancellation and never fails the transition.
func (m *Manager) appendLog(ctx context.Context, res *Result, shift *models.EVVShift, event models.EventType, at time.Time, reading geo.Reading, status models.VerificationStatus) *models.EVVLogEntry {
	entry := &models.EVVLogEntry{
		ID:                 m.newID(),
		ShiftID:            shift.ID,
		WorkerID:           shift.WorkerID,
		EventType:          event,
		EventTimestamp:     at,
		GPSLatitude:        reading.Coords.Lat,
		GPSLongitude:       reading.Coords.Lng,
		LocationAddress:    optional(reading.Address),
		VerificationStatus: status,
	}

	if err := m.store.AppendLog(context.WithoutCancel(ctx), entry); err != nil {
		m.logger.Warn().Err(err).
			Str("shift_id", shift.ID).
			Str("event", string(event)).
			Msg("shift saved but audit log entry was not written")
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s recorded but the audit log entry could not be written", event))
		return nil
	}
	return entry
}

func (m *Manager) notify(ctx context.Context, shift *models.EVVShift, kind notify.Kind, title, body string) {
	if m.notifier == nil {
		return
	}
	n := notify.Notification{
		ID:        m.newID(),
		Recipient: shift.WorkerID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		ShiftID:   shift.ID,
		CreatedAt: m.now(),
	}
	if err := m.notifier.Enqueue(context.WithoutCancel(ctx), n); err != nil {
		m.logger.Warn().Err(err).Str("shift_id", shift.ID).Msg("failed to enqueue notification")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
