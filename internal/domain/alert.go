package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// State is the lifecycle position of an alert. Triggered is terminal.
type State int

const (
	StateActive State = iota + 1
	StateDeactivated
	StateTriggered
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDeactivated:
		return "deactivated"
	case StateTriggered:
		return "triggered"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Alert is a price-threshold watch on one symbol.
//
// The trigger time only exists in StateTriggered, so an active alert with a
// trigger time cannot be expressed.
type Alert struct {
	id          string
	symbol      string
	targetPrice decimal.Decimal
	direction   Direction
	createdOn   time.Time
	createdBy   string
	notes       string

	state       State
	triggeredOn time.Time

	version int64
}

// NewAlert builds an active alert or reports every violated field rule.
func NewAlert(id, createdBy string, f Fields, now time.Time) (*Alert, error) {
	f = f.Normalize()
	createdBy = strings.TrimSpace(createdBy)
	if err := ValidateCreate(createdBy, f); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Violations: []Violation{violation("id", "required", "")}}
	}
	return &Alert{
		id:          id,
		symbol:      f.Symbol,
		targetPrice: f.TargetPrice,
		direction:   f.Direction,
		createdOn:   storedTime(now),
		createdBy:   createdBy,
		notes:       f.Notes,
		state:       StateActive,
	}, nil
}

// Snapshot is the flat form of an alert used by storage and views.
type Snapshot struct {
	ID          string
	Symbol      string
	TargetPrice decimal.Decimal
	Direction   Direction
	CreatedOn   time.Time
	TriggeredOn *time.Time
	IsActive    bool
	CreatedBy   string
	Notes       string
	Version     int64
}

// Restore rebuilds an alert from persisted fields.
func Restore(s Snapshot) (*Alert, error) {
	if s.IsActive && s.TriggeredOn != nil {
		return nil, fmt.Errorf("%w: alert %s is active and triggered", ErrInconsistent, s.ID)
	}
	if !s.Direction.Valid() {
		return nil, fmt.Errorf("%w: alert %s has direction %q", ErrInconsistent, s.ID, s.Direction)
	}
	a := &Alert{
		id:          s.ID,
		symbol:      s.Symbol,
		targetPrice: s.TargetPrice,
		direction:   s.Direction,
		createdOn:   s.CreatedOn,
		createdBy:   s.CreatedBy,
		notes:       s.Notes,
		version:     s.Version,
	}
	switch {
	case s.TriggeredOn != nil:
		a.state = StateTriggered
		a.triggeredOn = *s.TriggeredOn
	case s.IsActive:
		a.state = StateActive
	default:
		a.state = StateDeactivated
	}
	return a, nil
}

func (a *Alert) Snapshot() Snapshot {
	return Snapshot{
		ID:          a.id,
		Symbol:      a.symbol,
		TargetPrice: a.targetPrice,
		Direction:   a.direction,
		CreatedOn:   a.createdOn,
		TriggeredOn: a.TriggeredOn(),
		IsActive:    a.IsActive(),
		CreatedBy:   a.createdBy,
		Notes:       a.notes,
		Version:     a.version,
	}
}

func (a *Alert) ID() string                   { return a.id }
func (a *Alert) Symbol() string               { return a.symbol }
func (a *Alert) TargetPrice() decimal.Decimal { return a.targetPrice }
func (a *Alert) Direction() Direction         { return a.direction }
func (a *Alert) CreatedOn() time.Time         { return a.createdOn }
func (a *Alert) CreatedBy() string            { return a.createdBy }
func (a *Alert) Notes() string                { return a.notes }
func (a *Alert) State() State                 { return a.state }
func (a *Alert) IsActive() bool               { return a.state == StateActive }

// Version is the optimistic concurrency token loaded from storage.
func (a *Alert) Version() int64 { return a.version }

// TriggeredOn returns nil unless the alert has fired.
func (a *Alert) TriggeredOn() *time.Time {
	if a.state != StateTriggered {
		return nil
	}
	t := a.triggeredOn
	return &t
}

// Update replaces the editable fields. Identity, creation time and lifecycle
// state are left untouched. On failure the alert is unchanged.
func (a *Alert) Update(f Fields) error {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return err
	}
	a.symbol = f.Symbol
	a.targetPrice = f.TargetPrice
	a.direction = f.Direction
	a.notes = f.Notes
	return nil
}

// ShouldTrigger reports whether price satisfies the alert condition.
// Alerts that are not active never trigger.
func (a *Alert) ShouldTrigger(price decimal.Decimal) (bool, error) {
	if a.state != StateActive {
		return false, nil
	}
	switch a.direction {
	case Above:
		return price.GreaterThanOrEqual(a.targetPrice), nil
	case Below:
		return price.LessThanOrEqual(a.targetPrice), nil
	default:
		return false, fmt.Errorf("%w: alert %s has direction %q", ErrInconsistent, a.id, a.direction)
	}
}

// Trigger moves an active alert to StateTriggered. It is rejected, not
// ignored, for alerts that already fired.
func (a *Alert) Trigger(now time.Time) error {
	switch a.state {
	case StateActive:
		a.state = StateTriggered
		a.triggeredOn = storedTime(now)
		return nil
	case StateTriggered:
		return ErrAlreadyTriggered
	default:
		return ErrNotActive
	}
}

// Deactivate stops evaluation of an active alert. Deactivating twice is a no-op.
func (a *Alert) Deactivate() error {
	switch a.state {
	case StateActive:
		a.state = StateDeactivated
		return nil
	case StateDeactivated:
		return nil
	default:
		return ErrDeactivateTriggered
	}
}

// Reactivate resumes evaluation of a deactivated alert. Reactivating an
// active alert is a no-op.
func (a *Alert) Reactivate() error {
	switch a.state {
	case StateDeactivated:
		a.state = StateActive
		return nil
	case StateActive:
		return nil
	default:
		return ErrReactivateTriggered
	}
}

// storedTime drops precision the store cannot keep, so an alert reads back
// exactly as it was built.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
