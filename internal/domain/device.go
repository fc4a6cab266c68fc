package domain

import (
	"errors"
	"time"
)

// Protocol selects how neighbor tables are collected from a device
type Protocol string

const (
	ProtocolSSH  Protocol = "ssh"
	ProtocolSNMP Protocol = "snmp"
)

// DeviceStatus is the reachability state recorded by the directory
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
)

var (
	// ErrDeviceNotFound is returned when a device id is not in the directory
	ErrDeviceNotFound = errors.New("device not found")
	// ErrCredentialNotFound is returned when a device has no usable credential
	ErrCredentialNotFound = errors.New("credential not found")
)

// Device represents a managed network element
type Device struct {
	ID        int64        `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	IP        string       `json:"ip" yaml:"ip"`
	Vendor    string       `json:"vendor" yaml:"vendor"`
	Model     string       `json:"model,omitempty" yaml:"model,omitempty"`
	Protocol  Protocol     `json:"protocol" yaml:"protocol"`
	Username  string       `json:"username,omitempty" yaml:"username,omitempty"`
	GroupID   *int64       `json:"group_id,omitempty" yaml:"group_id,omitempty"`
	Status    DeviceStatus `json:"status" yaml:"status"`
	CreatedAt time.Time    `json:"created_at" yaml:"-"`
}

// EffectiveProtocol returns the collection protocol, defaulting to SSH
func (d *Device) EffectiveProtocol() Protocol {
	if d.Protocol == "" {
		return ProtocolSSH
	}
	return d.Protocol
}

// Credential is the decrypted login material for one device.
// For SNMP devices Secret carries the community string.
type Credential struct {
	Username string `json:"-"`
	Secret   string `json:"-"`
}
