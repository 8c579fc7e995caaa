package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alert 价格提醒
type Alert struct {
	Id          string          `gorm:"primaryKey;type:varchar(36)"`
	Symbol      string          `gorm:"type:varchar(10);not null;index"`
	TargetPrice decimal.Decimal `gorm:"type:varchar(40);not null"`
	Direction   string          `gorm:"type:varchar(10);not null"`
	CreatedOn   time.Time       `gorm:"not null;index"`
	TriggeredOn *time.Time
	IsActive    bool   `gorm:"not null;index"`
	CreatedBy   string `gorm:"type:varchar(100);not null"`
	Notes       string `gorm:"type:varchar(500)"`
	Version     int64  `gorm:"not null;default:1"` // 乐观锁版本号, 每次提交 +1
	UpdatedAt   time.Time
}

func (Alert) TableName() string {
	return "alerts"
}
