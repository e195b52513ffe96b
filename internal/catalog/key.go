package catalog

import (
	"fmt"
	"time"
)

// ProgramKey is the natural composite key (start_at, network_id,
// service_id, event_id) that uniquely identifies a Program.
type ProgramKey struct {
	StartAt   time.Time
	NetworkID uint16
	ServiceID uint16
	EventID   uint16
}

// String renders a stable textual form, used as the map key backing the
// catalog's sorted program index.
func (k ProgramKey) String() string {
	return fmt.Sprintf("%s|%05d|%05d|%05d", k.StartAt.UTC().Format(time.RFC3339Nano), k.NetworkID, k.ServiceID, k.EventID)
}

// Less orders keys by start time first, then the broadcast identifier
// triple, matching the order a fresh decode of creation-ordered records
// would naturally produce for same-timestamp events.
func (k ProgramKey) Less(other ProgramKey) bool {
	if !k.StartAt.Equal(other.StartAt) {
		return k.StartAt.Before(other.StartAt)
	}
	if k.NetworkID != other.NetworkID {
		return k.NetworkID < other.NetworkID
	}
	if k.ServiceID != other.ServiceID {
		return k.ServiceID < other.ServiceID
	}
	return k.EventID < other.EventID
}
