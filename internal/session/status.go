package session

import (
	"slices"
	"strings"
)

//go:generate enumer -type=HealthStatus -trimprefix=Health -transform=snake -json -text -yaml
//go:generate enumer -type=ConnectionStatus -trimprefix=Connection -transform=snake -json -text -yaml
//go:generate go run github.com/smykla-skalski/sendguard/tools/enumerfix healthstatus_enumer.go connectionstatus_enumer.go

// HealthStatus is the discrete health of a session as derived by the classifier.
type HealthStatus int

const (
	// HealthUnknown means no signals were strong enough to classify.
	HealthUnknown HealthStatus = iota

	// HealthHealthy means connected with clean delivery signals.
	HealthHealthy

	// HealthWarning means degraded or transitional.
	HealthWarning

	// HealthRisky means failure patterns that warrant reduced limits.
	HealthRisky

	// HealthCooldown means a strike forced the limits to zero for a while.
	HealthCooldown

	// HealthBlocked is terminal and requires administrative intervention.
	HealthBlocked
)

// ConnectionStatus is the lifecycle state reported for a session.
type ConnectionStatus int

const (
	ConnectionUnknown ConnectionStatus = iota
	ConnectionConnected
	ConnectionDisconnected
	ConnectionAuthFailed
	ConnectionInitializing
	ConnectionReconnecting
	ConnectionAuthenticated
)

// ParseConnectionStatus parses free text case-insensitively. Anything
// unrecognized maps to ConnectionUnknown.
func ParseConnectionStatus(s string) ConnectionStatus {
	status, err := ConnectionStatusString(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return ConnectionUnknown
	}

	return status
}

// In reports whether c is one of the given statuses.
func (c ConnectionStatus) In(statuses ...ConnectionStatus) bool {
	return slices.Contains(statuses, c)
}
