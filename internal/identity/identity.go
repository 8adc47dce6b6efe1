// Package identity provides the device identifier sent with every submission.
package identity

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultMACPath is the sysfs file holding the wired interface's hardware address.
const DefaultMACPath = "/sys/class/net/eth0/address"

// Source returns the device identifier. It is read once per submission attempt.
type Source interface {
	DeviceID() (string, error)
}

// FileSource reads the identifier from a file such as a sysfs MAC address.
type FileSource struct {
	Path string
}

// DeviceID returns the file content with surrounding whitespace removed.
func (f FileSource) DeviceID() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read device id: %w", err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", errors.New("read device id: empty")
	}
	return id, nil
}

// Static is a fixed identifier.
type Static string

// DeviceID returns the identifier.
func (s Static) DeviceID() (string, error) {
	return string(s), nil
}
