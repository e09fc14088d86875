package domain

import "time"

// TrackingStatus is the normalized state of a shipment.
type TrackingStatus string

const (
	TrackingInTransit      TrackingStatus = "in_transit"
	TrackingDelivered      TrackingStatus = "delivered"
	TrackingException      TrackingStatus = "exception"
	TrackingPickup         TrackingStatus = "pickup"
	TrackingManifestPickup TrackingStatus = "manifest_pickup"
	TrackingOutForDelivery TrackingStatus = "out_for_delivery"
)

// ShipmentEvent is one scan in a shipment's history.
type ShipmentEvent struct {
	Name     string    `json:"name"`
	Time     time.Time `json:"time"`
	Location *Location `json:"location,omitempty"`
}

// TrackingResponse is the normalized tracking result for one shipment.
type TrackingResponse struct {
	Envelope
	Carrier           string          `json:"carrier"`
	TrackingNumber    string          `json:"tracking_number"`
	Status            TrackingStatus  `json:"status,omitempty"`
	StatusCode        string          `json:"status_code,omitempty"`
	StatusDescription string          `json:"status_description,omitempty"`
	Delivered         bool            `json:"delivered"`
	Exception         bool            `json:"exception"`
	ExceptionEvent    *ShipmentEvent  `json:"exception_event,omitempty"`
	// ScheduledDelivery is nil once the shipment is delivered.
	ScheduledDelivery *time.Time      `json:"scheduled_delivery,omitempty"`
	Origin            *Location       `json:"origin,omitempty"`
	Destination       *Location       `json:"destination,omitempty"`
	Events            []ShipmentEvent `json:"events"`
}

// LatestEvent returns the most recent event, or nil when there are none.
func (r *TrackingResponse) LatestEvent() *ShipmentEvent {
	if len(r.Events) == 0 {
		return nil
	}
	return &r.Events[len(r.Events)-1]
}
