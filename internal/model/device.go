package model

import "time"

// Device platforms
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// ValidPlatform reports whether p is one of the supported device platforms.
func ValidPlatform(p string) bool {
	switch p {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
		return true
	}
	return false
}

type UserDevice struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	EndpointToken string    `json:"-"`
	Platform      string    `json:"platform"`
	DeviceID      string    `json:"device_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
