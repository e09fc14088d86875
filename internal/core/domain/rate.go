package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Envelope carries what every carrier response has in common.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	// Request is the raw request text that produced this response.
	Request string `json:"-"`
	// Raw is the raw response document.
	Raw string `json:"-"`
}

// RateEstimate is one priced service option.
type RateEstimate struct {
	Carrier     string          `json:"carrier"`
	ServiceName string          `json:"service_name"`
	ServiceCode string          `json:"service_code"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Currency    string          `json:"currency"`
	// DeliveryRange is nil when the carrier does not guarantee a delivery date.
	DeliveryRange []time.Time `json:"delivery_range,omitempty"`
	Origin        Location    `json:"-"`
	Destination   Location    `json:"-"`
	Packages      []Package   `json:"-"`
}

// RateResponse is the result of a rate shopping request.
type RateResponse struct {
	Envelope
	Rates []RateEstimate `json:"rates"`
}

// TransitTime is the carrier's estimated arrival for one service.
type TransitTime struct {
	ServiceCode  string    `json:"service_code"`
	ServiceName  string    `json:"service_name"`
	BusinessDays int       `json:"business_days"`
	ArrivalDate  time.Time `json:"arrival_date"`
	ArrivalTime  string    `json:"arrival_time,omitempty"`
}

// TransitTimeResponse is the result of a time-in-transit request.
type TransitTimeResponse struct {
	Envelope
	Times []TransitTime `json:"times"`
}

// AddBusinessDays moves from forward by days, skipping Saturdays and Sundays.
func AddBusinessDays(from time.Time, days int) time.Time {
	t := from
	for days > 0 {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days--
		}
	}
	return t
}
