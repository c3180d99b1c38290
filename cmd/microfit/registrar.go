package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ankitmishra23v/micro-fit/gateway"
	"github.com/ankitmishra23v/micro-fit/session"
)

const registerDevicePath = "users/register-device"

var _ session.DeviceRegistrar = (*installRegistrar)(nil)

// installRegistrar announces this install to the backend's notification side
// channel after login. The install ID is minted once and kept in the data
// folder. Registration failures are logged by the session controller.
type installRegistrar struct {
	gw        *gateway.Client
	installID string
}

func newInstallRegistrar(gw *gateway.Client, folder string) (*installRegistrar, error) {
	installID, err := loadOrCreateInstallID(filepath.Join(folder, "install_id"))
	if err != nil {
		return nil, err
	}
	return &installRegistrar{gw: gw, installID: installID}, nil
}

func (r *installRegistrar) RegisterDevice(ctx context.Context, userID string) error {
	_, err := r.gw.Post(ctx, registerDevicePath, map[string]string{
		"userId":    userID,
		"installId": r.installID,
		"platform":  "cli",
	})
	return err
}

func loadOrCreateInstallID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil && len(data) > 0 {
		return strings.TrimSpace(string(data)), nil
	}
	if err != nil && !os.IsNotExist(err) {
		return "", errors.Wrap(err, "[loadOrCreateInstallID] read")
	}

	installID := uuid.New().String()
	if err := os.WriteFile(path, []byte(installID), 0o600); err != nil {
		return "", errors.Wrap(err, "[loadOrCreateInstallID] write")
	}
	return installID, nil
}
