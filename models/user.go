package models

import "time"

type User struct {
	UserID    uint       `gorm:"primaryKey;column:user_id" json:"user_id"`
	UserFname string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname string     `gorm:"column:user_lname" json:"user_lname"`
	Email     string     `gorm:"column:email;unique" json:"email"`
	Password  string     `gorm:"column:password" json:"-"`
	RoleID    int        `gorm:"column:role_id" json:"role_id"`
	CreateAt  *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt  *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (User) TableName() string { return "users" }

// DisplayName joins first and last name, falling back to the email address.
func (u User) DisplayName() string {
	name := u.UserFname
	if u.UserLname != "" {
		if name != "" {
			name += " "
		}
		name += u.UserLname
	}
	if name == "" {
		return u.Email
	}
	return name
}

// UserDevice is a registered push target. Re-registering the same token for
// the same user updates the existing row.
type UserDevice struct {
	DeviceID    uint       `gorm:"primaryKey;column:device_id" json:"device_id"`
	UserID      uint       `gorm:"column:user_id;uniqueIndex:uniq_user_token" json:"user_id"`
	Platform    string     `gorm:"column:platform" json:"platform"`
	DeviceToken string     `gorm:"column:device_token;size:512;uniqueIndex:uniq_user_token" json:"device_token"`
	DeviceName  string     `gorm:"column:device_name" json:"device_name"`
	PushEnabled bool       `gorm:"column:push_enabled;default:true" json:"push_enabled"`
	LastUsedAt  *time.Time `gorm:"column:last_used_at" json:"last_used_at,omitempty"`
	CreateAt    time.Time  `gorm:"column:create_at;autoCreateTime" json:"created_at"`
}

func (UserDevice) TableName() string { return "user_devices" }

// NotificationPreference holds the per (user, type) channel toggles. Absence
// of a row means all channels enabled; the system type ignores these rows.
type NotificationPreference struct {
	PreferenceID     uint      `gorm:"primaryKey;column:preference_id" json:"preference_id"`
	UserID           uint      `gorm:"column:user_id;uniqueIndex:uniq_user_type" json:"user_id"`
	NotificationType string    `gorm:"column:notification_type;size:64;uniqueIndex:uniq_user_type" json:"notification_type"`
	EmailEnabled     bool      `gorm:"column:email_enabled;default:true" json:"email_enabled"`
	PushEnabled      bool      `gorm:"column:push_enabled;default:true" json:"push_enabled"`
	InAppEnabled     bool      `gorm:"column:in_app_enabled;default:true" json:"in_app_enabled"`
	CreateAt         time.Time `gorm:"column:create_at;autoCreateTime" json:"created_at"`
	UpdateAt         time.Time `gorm:"column:update_at;autoUpdateTime" json:"updated_at"`
}

func (NotificationPreference) TableName() string { return "notification_preferences" }
