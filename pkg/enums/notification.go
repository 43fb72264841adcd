package enums

import "fmt"

// NotificationLevel mirrors the colour a notice is shown with.
type NotificationLevel string

const (
	NotificationLevelSuccess NotificationLevel = "success"
	NotificationLevelDanger  NotificationLevel = "danger"
)

// IsValid checks whether the level is known.
func (n NotificationLevel) IsValid() bool {
	return n == NotificationLevelSuccess || n == NotificationLevelDanger
}

// ParseNotificationLevel converts raw strings into NotificationLevel.
func ParseNotificationLevel(value string) (NotificationLevel, error) {
	level := NotificationLevel(value)
	if !level.IsValid() {
		return "", fmt.Errorf("invalid notification level %q", value)
	}
	return level, nil
}
