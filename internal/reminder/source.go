package reminder

import (
	"context"

	"github.com/dukerupert/cuidamed/internal/model"
	"github.com/dukerupert/cuidamed/internal/push"
)

//go:generate mockgen -source=source.go -destination=source_mock.go -package=reminder

// EntrySource finds the dosing entries due in a schedule slot.
type EntrySource interface {
	FindActive(ctx context.Context, slot model.ScheduleSlot) ([]model.DosingEntry, error)
}

// DeviceSource resolves a user's registered devices and prunes dead tokens.
type DeviceSource interface {
	ListByUser(ctx context.Context, userID int64) ([]model.UserDevice, error)
	DeleteByToken(ctx context.Context, endpointToken string) error
}

// Sender delivers a message to one device.
type Sender interface {
	Send(ctx context.Context, device model.UserDevice, msg push.Message) error
}
