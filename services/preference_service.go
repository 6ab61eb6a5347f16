package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"project-management-api/models"
)

// ChannelPreferences is the resolved per-channel opt-in state for one
// (user, notification type) pair.
type ChannelPreferences struct {
	Email bool
	Push  bool
	InApp bool
}

// PreferencesFromRow maps a preference row to the resolved toggles. A nil row
// (no explicit preference stored) means everything is enabled.
func PreferencesFromRow(row *models.NotificationPreference) ChannelPreferences {
	if row == nil {
		return ChannelPreferences{Email: true, Push: true, InApp: true}
	}
	return ChannelPreferences{
		Email: row.EmailEnabled,
		Push:  row.PushEnabled,
		InApp: row.InAppEnabled,
	}
}

// ResolveChannelPreferences looks up the preference row for (user, type). A
// missing row is not an error; it resolves to all channels enabled. The
// "system" type never reaches this resolver — the dispatcher bypasses it.
func ResolveChannelPreferences(db *gorm.DB, userID uint, notificationType string) (ChannelPreferences, error) {
	var row models.NotificationPreference
	err := db.Where("user_id = ? AND notification_type = ?", userID, notificationType).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PreferencesFromRow(nil), nil
		}
		return ChannelPreferences{}, fmt.Errorf("failed to load notification preference: %w", err)
	}
	return PreferencesFromRow(&row), nil
}
