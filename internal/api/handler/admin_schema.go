package handler

import (
	"time"

	"github.com/agentkyo/jadlog-bot/internal/core/domain"
)

// --- Request / Response types ---

type registerPackageRequest struct {
	UserID       int64  `json:"user_id"       validate:"required"`
	TrackingCode string `json:"tracking_code" validate:"required,alphanum,min=6,max=20"`
}

type registerPackageResponse struct {
	UserID       int64  `json:"user_id"`
	TrackingCode string `json:"tracking_code"`
}

// Response-only types owned by the transport layer, kept separate from the
// domain so the JSON contract does not move when internals do.

type trackingEventResponse struct {
	Timestamp         string `json:"timestamp"`
	OriginPoint       string `json:"origin_point"`
	Status            string `json:"status"`
	DestinationPoint  string `json:"destination_point"`
	DocumentReference string `json:"document_reference"`
}

type packageResponse struct {
	UserID        int64                   `json:"user_id"`
	TrackingCode  string                  `json:"tracking_code"`
	Events        []trackingEventResponse `json:"events"`
	LastCheckedAt time.Time               `json:"last_checked_at"`
}

type packageListResponse struct {
	Data  []packageResponse `json:"data"`
	Total int               `json:"total"`
}

func toPackageListResponse(pkgs []*domain.TrackedPackage) packageListResponse {
	out := packageListResponse{Data: make([]packageResponse, 0, len(pkgs)), Total: len(pkgs)}
	for _, pkg := range pkgs {
		events := make([]trackingEventResponse, 0, len(pkg.Events))
		for _, ev := range pkg.Events {
			events = append(events, trackingEventResponse{
				Timestamp:         ev.Timestamp,
				OriginPoint:       ev.OriginPoint,
				Status:            ev.Status,
				DestinationPoint:  ev.DestinationPoint,
				DocumentReference: ev.DocumentReference,
			})
		}
		out.Data = append(out.Data, packageResponse{
			UserID:        pkg.UserID,
			TrackingCode:  pkg.TrackingCode,
			Events:        events,
			LastCheckedAt: pkg.LastCheckedAt,
		})
	}
	return out
}
