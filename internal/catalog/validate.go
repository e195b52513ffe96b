package catalog

import (
	"fmt"
)

const (
	maxMetadataKeyBytes   = 255
	maxMetadataValueBytes = 1 << 20 // 1 MiB
)

// ValidateProgramIdentity checks the service_id, event_id and start time
// that together with network_id form a ProgramKey, grounded on the
// original implementation's validate_program_id. network_id is not
// checked.
func ValidateProgramIdentity(networkID, serviceID, eventID uint16, hasStartAt bool) error {
	if serviceID == 0 {
		return fmt.Errorf("%w: service_id must be non-zero", ErrInvalidProgram)
	}
	if eventID == 0 {
		return fmt.Errorf("%w: event_id must be non-zero", ErrInvalidProgram)
	}
	if !hasStartAt {
		return fmt.Errorf("%w: start_at is required", ErrInvalidProgram)
	}
	return nil
}

// ValidateService checks a Service and, if present, its Channel.
func ValidateService(svc *Service) error {
	if svc == nil {
		return nil
	}
	if svc.ServiceID == 0 {
		return fmt.Errorf("%w: service.service_id must be non-zero", ErrInvalidProgram)
	}
	if svc.Channel != nil {
		if svc.Channel.ChannelCode == "" {
			return fmt.Errorf("%w: channel.channel_code must not be empty", ErrInvalidProgram)
		}
		if svc.Channel.Name == "" {
			return fmt.Errorf("%w: channel.name must not be empty", ErrInvalidProgram)
		}
	}
	return nil
}

// ValidateMetadataEntry enforces the per-entry size caps from spec §3.
func ValidateMetadataEntry(key, value string) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: metadata key must not be empty", ErrInvalidProgram)
	}
	if len(key) > maxMetadataKeyBytes {
		return fmt.Errorf("%w: metadata key exceeds %d bytes", ErrInvalidProgram, maxMetadataKeyBytes)
	}
	if len(value) > maxMetadataValueBytes {
		return fmt.Errorf("%w: metadata value exceeds %d bytes", ErrInvalidProgram, maxMetadataValueBytes)
	}
	return nil
}
