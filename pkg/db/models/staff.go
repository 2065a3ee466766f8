package models

import "time"

// Staff is the subset of the staff record this service owns: the single live
// tracking link shared with customers while a delivery is in progress.
type Staff struct {
	ID                uint64     `gorm:"column:id;primaryKey"`
	Name              string     `gorm:"column:name;type:varchar(255);not null;default:''"`
	Phone             *string    `gorm:"column:phone;type:varchar(20)"`
	TrackingLink      *string    `gorm:"column:tracking_link;type:text"`
	TrackingUpdatedAt *time.Time `gorm:"column:tracking_updated_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Staff) TableName() string {
	return "staff"
}
