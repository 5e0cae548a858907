package credential

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DeviceID returns this installation's push token, generating and storing
// a new one on first use.
func DeviceID(s Store) (string, error) {
	id, err := s.Get(DeviceKey)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}

	id = uuid.NewString()
	if err := s.Set(DeviceKey, id); err != nil {
		return "", fmt.Errorf("saving device id: %w", err)
	}
	return id, nil
}
