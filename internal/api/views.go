package api

import (
	"time"

	"github.com/shibafu528/dtvault-central/internal/catalog"
)

// ChannelView is the exchangeable projection of catalog.Channel.
type ChannelView struct {
	Type        string `json:"type"`
	ChannelCode string `json:"channel_code"`
	Name        string `json:"name"`
}

// ServiceView is the exchangeable projection of catalog.Service.
type ServiceView struct {
	NetworkID uint16       `json:"network_id"`
	ServiceID uint16       `json:"service_id"`
	Name      string       `json:"name"`
	Channel   *ChannelView `json:"channel,omitempty"`
}

// ExtendedFieldView is the exchangeable projection of one
// catalog.ExtendedField element.
type ExtendedFieldView struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ProgramView is the exchangeable representation of a catalog.Program,
// the shape get_program/list_programs/create_program respond with.
type ProgramView struct {
	ID          string              `json:"id"`
	NetworkID   uint16              `json:"network_id"`
	ServiceID   uint16              `json:"service_id"`
	EventID     uint16              `json:"event_id"`
	StartAt     time.Time           `json:"start_at"`
	DurationSec float64             `json:"duration_seconds"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Extended    []ExtendedFieldView `json:"extended,omitempty"`
	Service     *ServiceView        `json:"service,omitempty"`
	Metadata    map[string]string   `json:"metadata,omitempty"`
	VideoIDs    []string            `json:"video_ids,omitempty"`
}

func toProgramView(p *catalog.Program) ProgramView {
	v := ProgramView{
		ID:          p.ID,
		NetworkID:   p.NetworkID,
		ServiceID:   p.ServiceID,
		EventID:     p.EventID,
		StartAt:     p.StartAt,
		DurationSec: p.Duration.Seconds(),
		Name:        p.Name,
		Description: p.Description,
		Metadata:    p.Metadata,
		VideoIDs:    p.VideoIDs,
	}
	for _, e := range p.Extended {
		v.Extended = append(v.Extended, ExtendedFieldView{Key: e.Key, Value: e.Value})
	}
	if p.Service != nil {
		sv := &ServiceView{NetworkID: p.Service.NetworkID, ServiceID: p.Service.ServiceID, Name: p.Service.Name}
		if p.Service.Channel != nil {
			sv.Channel = &ChannelView{
				Type:        string(p.Service.Channel.Type),
				ChannelCode: p.Service.Channel.ChannelCode,
				Name:        p.Service.Channel.Name,
			}
		}
		v.Service = sv
	}
	return v
}

// VideoView is the exchangeable representation of a catalog.Video.
type VideoView struct {
	ID                string `json:"id"`
	ProgramID         string `json:"program_id"`
	ProviderID        string `json:"provider_id"`
	TotalLength       uint64 `json:"total_length"`
	FileName          string `json:"file_name"`
	OriginalFileName  string `json:"original_file_name"`
	MimeType          string `json:"mime_type"`
	StorageID         string `json:"storage_id"`
	StoragePrefix     string `json:"storage_prefix"`
	ThumbnailMimeType string `json:"thumbnail_mime_type,omitempty"`
	HasThumbnail      bool   `json:"has_thumbnail"`
}

func toVideoView(v *catalog.Video) VideoView {
	return VideoView{
		ID:                v.ID,
		ProgramID:         v.ProgramID,
		ProviderID:        v.ProviderID,
		TotalLength:       v.TotalLength,
		FileName:          v.FileName,
		OriginalFileName:  v.OriginalFileName,
		MimeType:          v.MimeType,
		StorageID:         v.StorageID,
		StoragePrefix:     v.StoragePrefix,
		ThumbnailMimeType: v.ThumbnailMimeType,
		HasThumbnail:      len(v.ThumbnailBytes) > 0,
	}
}

// CreateProgramRequest is the body of POST /v1/programs.
type CreateProgramRequest struct {
	NetworkID   uint16              `json:"network_id"`
	ServiceID   uint16              `json:"service_id"`
	EventID     uint16              `json:"event_id"`
	StartAt     time.Time           `json:"start_at"`
	DurationSec float64             `json:"duration_seconds"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Extended    []ExtendedFieldView `json:"extended,omitempty"`
	Service     *ServiceView        `json:"service,omitempty"`
}

// UpdateProgramMetadataRequest is the body of PUT
// /v1/programs/{...}/metadata/{key}.
type UpdateProgramMetadataRequest struct {
	Value string `json:"value"`
}
