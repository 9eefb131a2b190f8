package models

import "time"

// TimetableSlot is one weekly interval in a user's timetable. The whole slot
// set is replaced on every upload; rows are hard-deleted. Times are stored as
// normalized "HH:mm" text. Overlapping slots are accepted as-is since the data
// comes from best-effort image extraction.
type TimetableSlot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	DayOfWeek string    `gorm:"size:10;not null" json:"day_of_week"`
	StartTime string    `gorm:"size:5;not null" json:"start_time"` // HH:mm
	EndTime   string    `gorm:"size:5;not null" json:"end_time"`   // HH:mm
	Subject   string    `gorm:"size:200" json:"subject"`
	IsFree    bool      `gorm:"default:false" json:"is_free"`
	CreatedAt time.Time `json:"created_at"`
}

func (TimetableSlot) TableName() string { return "timetable_slots" }
