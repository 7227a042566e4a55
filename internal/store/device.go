package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/cuidamed/internal/model"
)

type DeviceStore struct {
	db *sql.DB
}

func NewDeviceStore(db *sql.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

const deviceCols = `id, user_id, endpoint_token, platform, device_id, created_at, updated_at`

func scanDevice(scanner interface{ Scan(...any) error }) (*model.UserDevice, error) {
	var d model.UserDevice
	err := scanner.Scan(&d.ID, &d.UserID, &d.EndpointToken, &d.Platform, &d.DeviceID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Upsert registers a device, replacing the endpoint token when the
// (user, platform, device) triple is already known.
func (s *DeviceStore) Upsert(ctx context.Context, userID int64, platform, deviceID, endpointToken string) (*model.UserDevice, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_devices (user_id, endpoint_token, platform, device_id)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, platform, device_id) DO UPDATE
		 SET endpoint_token = excluded.endpoint_token, updated_at = CURRENT_TIMESTAMP`,
		userID, endpointToken, platform, deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert device: %w", err)
	}

	// LastInsertId is not reliable on the update path; re-query by the unique key
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deviceCols+` FROM user_devices WHERE user_id = ? AND platform = ? AND device_id = ?`,
		userID, platform, deviceID)
	d, err := scanDevice(row)
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	return d, nil
}

func (s *DeviceStore) GetByID(ctx context.Context, id, userID int64) (*model.UserDevice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deviceCols+` FROM user_devices WHERE id = ? AND user_id = ?`, id, userID)
	d, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	return d, nil
}

func (s *DeviceStore) ListByUser(ctx context.Context, userID int64) ([]model.UserDevice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deviceCols+` FROM user_devices WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices by user: %w", err)
	}
	defer rows.Close()

	var devices []model.UserDevice
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

func (s *DeviceStore) Delete(ctx context.Context, id, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_devices WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	return nil
}

// DeleteByToken drops every registration carrying the token. Used when the
// push service reports the token as no longer valid.
func (s *DeviceStore) DeleteByToken(ctx context.Context, endpointToken string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_devices WHERE endpoint_token = ?`, endpointToken)
	if err != nil {
		return fmt.Errorf("delete device by token: %w", err)
	}
	return nil
}
