package credential

import (
	"errors"
	"testing"
)

func TestMemoryMissingKey(t *testing.T) {
	m := NewMemory()
	if _, err := m.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := m.Delete("nope"); err != nil {
		t.Fatalf("delete of missing key: %v", err)
	}
}

func TestDeviceIDIsStable(t *testing.T) {
	m := NewMemory()

	first, err := DeviceID(m)
	if err != nil {
		t.Fatalf("DeviceID: %v", err)
	}
	if first == "" {
		t.Fatal("expected a generated id")
	}

	second, err := DeviceID(m)
	if err != nil {
		t.Fatalf("DeviceID again: %v", err)
	}
	if first != second {
		t.Errorf("device id changed: %q then %q", first, second)
	}
}
