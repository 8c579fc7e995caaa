package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/KNICEX/stock-alert/internal/domain"
	"github.com/KNICEX/stock-alert/internal/entity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AlertRepo is the single source of truth for alerts. Reads go straight to
// the database; writes are grouped in a UnitOfWork and applied by Commit.
type AlertRepo interface {
	ListAll(ctx context.Context) ([]*domain.Alert, error)
	GetByID(ctx context.Context, id string) (*domain.Alert, error)
	Begin(opts ...UnitOfWorkOption) UnitOfWork
}

// UnitOfWork collects changes and writes them in one transaction.
//
// Dirty and removed alerts are matched on their loaded version; a row that
// changed in between fails the whole commit with domain.ErrConflict.
type UnitOfWork interface {
	Add(alert *domain.Alert)
	Remove(alert *domain.Alert)
	MarkDirty(alert *domain.Alert)
	Commit(ctx context.Context) error
	// Dropped lists ids skipped at commit because their row was gone.
	// Only populated with SkipMissing.
	Dropped() []string
}

type UnitOfWorkOption func(u *unitOfWork)

// SkipMissing treats dirty alerts deleted in the meantime as a benign outcome:
// their write is dropped instead of failing the commit.
func SkipMissing() UnitOfWorkOption {
	return func(u *unitOfWork) {
		u.skipMissing = true
	}
}

type alertRepo struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewAlertRepo(db *gorm.DB, logger *zap.Logger) AlertRepo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &alertRepo{
		db:     db,
		logger: logger,
	}
}

func (r *alertRepo) ListAll(ctx context.Context) ([]*domain.Alert, error) {
	var rows []entity.Alert
	err := r.db.WithContext(ctx).Order("created_on, id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	alerts := make([]*domain.Alert, 0, len(rows))
	for _, row := range rows {
		alert, err := toDomain(row)
		if err != nil {
			r.logger.Error("skip unreadable alert row", zap.String("alert_id", row.Id), zap.Error(err))
			continue
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (r *alertRepo) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	var row entity.Alert
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound(id)
		}
		return nil, err
	}
	return toDomain(row)
}

func (r *alertRepo) Begin(opts ...UnitOfWorkOption) UnitOfWork {
	u := &unitOfWork{
		db:      r.db,
		pending: make(map[string]op),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type op int

const (
	opAdd op = iota + 1
	opDirty
	opRemove
)

type change struct {
	op    op
	alert *domain.Alert
}

type unitOfWork struct {
	db          *gorm.DB
	skipMissing bool

	changes []change
	pending map[string]op
	dropped []string
}

func (u *unitOfWork) Add(alert *domain.Alert) {
	u.track(opAdd, alert)
}

func (u *unitOfWork) Remove(alert *domain.Alert) {
	u.track(opRemove, alert)
}

func (u *unitOfWork) MarkDirty(alert *domain.Alert) {
	u.track(opDirty, alert)
}

func (u *unitOfWork) track(o op, alert *domain.Alert) {
	id := alert.ID()
	prev, seen := u.pending[id]
	switch {
	case !seen:
		u.pending[id] = o
		u.changes = append(u.changes, change{op: o, alert: alert})
	case o == opDirty:
		// an add or remove already carries the latest state
	case o == opRemove && prev == opAdd:
		delete(u.pending, id)
		u.changes = dropChange(u.changes, id)
	default:
		u.pending[id] = o
		u.changes = dropChange(u.changes, id)
		u.changes = append(u.changes, change{op: o, alert: alert})
	}
}

func dropChange(changes []change, id string) []change {
	res := changes[:0]
	for _, c := range changes {
		if c.alert.ID() != id {
			res = append(res, c)
		}
	}
	return res
}

func (u *unitOfWork) Dropped() []string {
	return u.dropped
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if len(u.changes) == 0 {
		return nil
	}

	var dropped []string
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dropped = dropped[:0]
		for _, c := range u.changes {
			var err error
			switch c.op {
			case opAdd:
				err = insert(tx, c.alert)
			case opDirty:
				err = update(tx, c.alert)
			case opRemove:
				err = remove(tx, c.alert)
			}
			if err == nil {
				continue
			}
			if c.op == opDirty && u.skipMissing && errors.Is(err, domain.ErrNotFound) {
				dropped = append(dropped, c.alert.ID())
				continue
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.dropped = dropped
	u.changes = nil
	u.pending = make(map[string]op)
	return nil
}

func insert(tx *gorm.DB, alert *domain.Alert) error {
	row := toEntity(alert.Snapshot())
	row.Version = 1
	return tx.Create(&row).Error
}

func update(tx *gorm.DB, alert *domain.Alert) error {
	snap := alert.Snapshot()
	res := tx.Model(&entity.Alert{}).
		Where("id = ? AND version = ?", snap.ID, snap.Version).
		Updates(map[string]any{
			"symbol":       snap.Symbol,
			"target_price": snap.TargetPrice,
			"direction":    string(snap.Direction),
			"notes":        snap.Notes,
			"is_active":    snap.IsActive,
			"triggered_on": snap.TriggeredOn,
			"version":      gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return missingOrConflict(tx, snap.ID)
	}
	return nil
}

func remove(tx *gorm.DB, alert *domain.Alert) error {
	res := tx.Where("id = ? AND version = ?", alert.ID(), alert.Version()).Delete(&entity.Alert{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return missingOrConflict(tx, alert.ID())
	}
	return nil
}

func missingOrConflict(tx *gorm.DB, id string) error {
	var n int64
	if err := tx.Model(&entity.Alert{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound(id)
	}
	return fmt.Errorf("%w: alert %s changed since it was loaded", domain.ErrConflict, id)
}

func toDomain(row entity.Alert) (*domain.Alert, error) {
	return domain.Restore(domain.Snapshot{
		ID:          row.Id,
		Symbol:      row.Symbol,
		TargetPrice: row.TargetPrice,
		Direction:   domain.Direction(row.Direction),
		CreatedOn:   row.CreatedOn,
		TriggeredOn: row.TriggeredOn,
		IsActive:    row.IsActive,
		CreatedBy:   row.CreatedBy,
		Notes:       row.Notes,
		Version:     row.Version,
	})
}

func toEntity(snap domain.Snapshot) entity.Alert {
	return entity.Alert{
		Id:          snap.ID,
		Symbol:      snap.Symbol,
		TargetPrice: snap.TargetPrice,
		Direction:   string(snap.Direction),
		CreatedOn:   snap.CreatedOn,
		TriggeredOn: snap.TriggeredOn,
		IsActive:    snap.IsActive,
		CreatedBy:   snap.CreatedBy,
		Notes:       snap.Notes,
		Version:     snap.Version,
	}
}
