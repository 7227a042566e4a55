package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/cuidamed/internal/model"
	"github.com/dukerupert/cuidamed/internal/push"
)

// Dispatcher fans a message out to every device of a user.
type Dispatcher struct {
	sender  Sender
	devices DeviceSource
	logger  *slog.Logger
}

func NewDispatcher(sender Sender, devices DeviceSource, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		devices: devices,
		logger:  logger,
	}
}

// Dispatch sends msg to each device independently and returns how many sends
// succeeded. A failed device never stops the others. Tokens the push service
// reports as expired are deleted.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int64, devices []model.UserDevice, msg push.Message) int {
	sent := 0
	for _, device := range devices {
		err := d.send(ctx, device, msg)
		if err == nil {
			sent++
			continue
		}

		if errors.Is(err, push.ErrExpired) {
			if derr := d.devices.DeleteByToken(ctx, device.EndpointToken); derr != nil {
				d.logger.Error("failed to prune expired device", "user_id", userID, "device_id", device.DeviceID, "error", derr)
			} else {
				d.logger.Info("pruned expired device", "user_id", userID, "device_id", device.DeviceID, "platform", device.Platform)
			}
			continue
		}

		d.logger.Warn("push send failed",
			"user_id", userID,
			"device_id", device.DeviceID,
			"platform", device.Platform,
			"error", err,
		)
	}

	d.logger.Info("reminder dispatched", "user_id", userID, "sent", fmt.Sprintf("%d/%d", sent, len(devices)))
	return sent
}

// send converts a panic in the sender into an error so one device cannot
// stop delivery to the rest.
func (d *Dispatcher) send(ctx context.Context, device model.UserDevice, msg push.Message) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("send panic: %v", p)
		}
	}()
	return d.sender.Send(ctx, device, msg)
}
