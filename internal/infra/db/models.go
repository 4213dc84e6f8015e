package db

import "time"

type BookingModel struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	BookingNumber string    `gorm:"uniqueIndex;not null"`
	ServiceType   string    `gorm:"index;not null"`
	Priority      string    `gorm:"not null"`
	Description   string    `gorm:"not null"`
	ContactName   string    `gorm:"not null"`
	ContactPhone  string    `gorm:"not null"`
	ContactAddr   string    `gorm:"not null"`
	ScheduledTime time.Time `gorm:"index;not null"`
	Status        string    `gorm:"index;not null"`
	TotalCost     *float64
	Rating        *int
	Review        *string
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
	CompletedAt   *time.Time
}

func (BookingModel) TableName() string { return "bookings" }

type UserRoleModel struct {
	Subject   string    `gorm:"primaryKey"`
	IsAdmin   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (UserRoleModel) TableName() string { return "user_roles" }
