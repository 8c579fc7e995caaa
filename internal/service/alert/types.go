package alert

import (
	"time"

	"github.com/KNICEX/stock-alert/internal/domain"
	"github.com/shopspring/decimal"
)

// AlertView is the only externally visible shape of an alert.
type AlertView struct {
	Id          string           `json:"id"`
	Symbol      string           `json:"symbol"`
	TargetPrice decimal.Decimal  `json:"targetPrice"`
	Direction   domain.Direction `json:"direction"`
	CreatedOn   time.Time        `json:"createdOn"`
	TriggeredOn *time.Time       `json:"triggeredOn"`
	IsActive    bool             `json:"isActive"`
	CreatedBy   string           `json:"createdBy"`
	Notes       string           `json:"notes"`
}

type CreateParams struct {
	Symbol      string           `json:"symbol"`
	TargetPrice decimal.Decimal  `json:"targetPrice"`
	Direction   domain.Direction `json:"direction"`
	CreatedBy   string           `json:"createdBy"`
	Notes       string           `json:"notes"`
}

func (p CreateParams) fields() domain.Fields {
	return domain.Fields{
		Symbol:      p.Symbol,
		TargetPrice: p.TargetPrice,
		Direction:   p.Direction,
		Notes:       p.Notes,
	}
}

type UpdateParams struct {
	Symbol      string           `json:"symbol"`
	TargetPrice decimal.Decimal  `json:"targetPrice"`
	Direction   domain.Direction `json:"direction"`
	Notes       string           `json:"notes"`
}

func (p UpdateParams) fields() domain.Fields {
	return domain.Fields{
		Symbol:      p.Symbol,
		TargetPrice: p.TargetPrice,
		Direction:   p.Direction,
		Notes:       p.Notes,
	}
}

func toView(a *domain.Alert) AlertView {
	snap := a.Snapshot()
	return AlertView{
		Id:          snap.ID,
		Symbol:      snap.Symbol,
		TargetPrice: snap.TargetPrice,
		Direction:   snap.Direction,
		CreatedOn:   snap.CreatedOn,
		TriggeredOn: snap.TriggeredOn,
		IsActive:    snap.IsActive,
		CreatedBy:   snap.CreatedBy,
		Notes:       snap.Notes,
	}
}
