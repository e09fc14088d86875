package ups

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/99minutos/carrier-bindings/internal/carrier/labelfile"
	"github.com/99minutos/carrier-bindings/internal/core/domain"
	"github.com/99minutos/carrier-bindings/pkg/xmlnode"
)

var outForDelivery = regexp.MustCompile(`(?i)out.*delivery`)

// parseEnvelope reads the status block every UPS response carries.
func parseEnvelope(raw []byte) (*etree.Element, domain.Envelope, error) {
	root, err := xmlnode.Parse(raw)
	if err != nil {
		return nil, domain.Envelope{}, &domain.MalformedResponse{Carrier: Name, Detail: err.Error()}
	}
	env := domain.Envelope{
		Success: xmlnode.Text(root, "Response/ResponseStatusCode") == "1",
		Message: xmlnode.FirstText(root, "Response/Error/ErrorDescription", "Response/ResponseStatusDescription"),
		Raw:     string(raw),
	}
	return root, env, nil
}

func parseRateResponse(raw []byte, origin, destination domain.Location, packages []domain.Package, now time.Time) (*domain.RateResponse, error) {
	root, env, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	resp := &domain.RateResponse{Envelope: env}
	if !env.Success {
		return resp, nil
	}
	for _, rated := range root.SelectElements("RatedShipment") {
		code := xmlnode.Text(rated, "Service/Code")
		price, err := decimal.NewFromString(xmlnode.Text(rated, "TotalCharges/MonetaryValue"))
		if err != nil {
			return nil, &domain.MalformedResponse{Carrier: Name, Detail: fmt.Sprintf("rated service %s: total charges: %v", code, err)}
		}
		days, _ := strconv.Atoi(xmlnode.Text(rated, "GuaranteedDaysToDelivery"))
		var deliveryRange []time.Time
		if days > 0 {
			deliveryRange = []time.Time{domain.AddBusinessDays(now, days)}
		}
		resp.Rates = append(resp.Rates, domain.RateEstimate{
			Carrier:       Name,
			ServiceName:   serviceNameFor(origin, code),
			ServiceCode:   code,
			TotalPrice:    price,
			Currency:      xmlnode.Text(rated, "TotalCharges/CurrencyCode"),
			DeliveryRange: deliveryRange,
			Origin:        origin,
			Destination:   destination,
			Packages:      packages,
		})
	}
	return resp, nil
}

func parseTrackingResponse(raw []byte) (*domain.TrackingResponse, error) {
	root, env, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	resp := &domain.TrackingResponse{Envelope: env, Carrier: Name}
	if !env.Success {
		return resp, nil
	}

	shipment := root.SelectElement("Shipment")
	if shipment == nil {
		return nil, &domain.MalformedResponse{Carrier: Name, Detail: "tracking response has no Shipment"}
	}
	pkg := shipment.SelectElement("Package")
	if pkg == nil {
		return nil, &domain.MalformedResponse{Carrier: Name, Detail: "tracking response has no Package"}
	}
	resp.TrackingNumber = xmlnode.FirstText(shipment, "ShipmentIdentificationNumber", "Package/TrackingNumber")

	resp.StatusCode = xmlnode.Text(pkg, "Activity/Status/StatusType/Code")
	resp.StatusDescription = xmlnode.Text(pkg, "Activity/Status/StatusType/Description")
	resp.Status = trackingStatusCodes[resp.StatusCode]
	if outForDelivery.MatchString(resp.StatusDescription) {
		resp.Status = domain.TrackingOutForDelivery
	}
	resp.Delivered = resp.Status == domain.TrackingDelivered
	resp.Exception = resp.Status == domain.TrackingException

	resp.Origin = locationFromAddress(shipment.FindElement("Shipper/Address"))
	resp.Destination = locationFromAddress(shipment.FindElement("ShipTo/Address"))

	if !resp.Delivered {
		if d, err := parseDateTime(xmlnode.Text(shipment, "ScheduledDeliveryDate"), ""); err == nil {
			resp.ScheduledDelivery = &d
		}
	}

	activities := pkg.SelectElements("Activity")
	events := make([]domain.ShipmentEvent, 0, len(activities)+1)
	for i, activity := range activities {
		ts, err := parseDateTime(xmlnode.Text(activity, "Date"), xmlnode.Text(activity, "Time"))
		if err != nil {
			return nil, &domain.MalformedResponse{Carrier: Name, Detail: fmt.Sprintf("activity %d: %v", i+1, err)}
		}
		events = append(events, domain.ShipmentEvent{
			Name:     xmlnode.Text(activity, "Status/StatusType/Description"),
			Time:     ts,
			Location: locationFromAddress(activity.FindElement("ActivityLocation/Address")),
		})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })

	// Archived shipments lose their early scans, so the shipper's address
	// stands in as the origin event.
	if resp.Origin != nil && len(events) > 1 {
		first := events[0]
		originEvent := domain.ShipmentEvent{Name: first.Name, Time: first.Time, Location: resp.Origin}
		if sameOriginPlace(resp.Origin, first.Location) {
			events[0] = originEvent
		} else {
			events = append([]domain.ShipmentEvent{originEvent}, events...)
		}
	}

	if resp.Delivered && len(events) > 0 {
		last := &events[len(events)-1]
		if resp.Destination == nil {
			resp.Destination = last.Location
		}
		last.Location = resp.Destination
	}
	if resp.Exception && len(events) > 0 {
		ev := events[len(events)-1]
		resp.ExceptionEvent = &ev
	}

	resp.Events = events
	return resp, nil
}

// sameOriginPlace reports whether a scan location can be replaced by the
// shipper address: same country and a matching or blank city.
func sameOriginPlace(origin, scan *domain.Location) bool {
	if scan == nil {
		return false
	}
	if origin.CountryCode() != scan.CountryCode() {
		return false
	}
	city := strings.TrimSpace(scan.City)
	return city == "" || strings.EqualFold(city, strings.TrimSpace(origin.City))
}

func parseTransitTimeResponse(raw []byte, origin domain.Location) (*domain.TransitTimeResponse, error) {
	root, env, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	resp := &domain.TransitTimeResponse{Envelope: env}
	if !env.Success {
		return resp, nil
	}
	for _, summary := range root.FindElements(".//ServiceSummary") {
		code := xmlnode.Text(summary, "Service/Code")
		days, _ := strconv.Atoi(xmlnode.Text(summary, "EstimatedArrival/BusinessTransitDays"))
		arrival, err := parseArrivalDate(xmlnode.Text(summary, "EstimatedArrival/Date"))
		if err != nil {
			return nil, &domain.MalformedResponse{Carrier: Name, Detail: fmt.Sprintf("service %s: arrival date: %v", code, err)}
		}
		name := serviceNameFor(origin, code)
		if name == "" {
			name = xmlnode.Text(summary, "Service/Description")
		}
		resp.Times = append(resp.Times, domain.TransitTime{
			ServiceCode:  code,
			ServiceName:  name,
			BusinessDays: days,
			ArrivalDate:  arrival,
			ArrivalTime:  xmlnode.Text(summary, "EstimatedArrival/Time"),
		})
	}
	return resp, nil
}

// parseConfirmResponse returns the digest ShipAccept needs.
func parseConfirmResponse(raw []byte) (domain.Envelope, string, error) {
	root, env, err := parseEnvelope(raw)
	if err != nil {
		return env, "", err
	}
	if !env.Success {
		return env, "", nil
	}
	digest := xmlnode.Text(root, "ShipmentDigest")
	if digest == "" {
		return env, "", &domain.MalformedResponse{Carrier: Name, Detail: "ship confirm response has no ShipmentDigest"}
	}
	return env, digest, nil
}

func parseAcceptResponse(raw []byte) (*domain.LabelResponse, error) {
	root, env, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	resp := &domain.LabelResponse{Envelope: env}
	if !env.Success {
		return resp, nil
	}
	results := root.SelectElement("ShipmentResults")
	if results == nil {
		return nil, &domain.MalformedResponse{Carrier: Name, Detail: "ship accept response has no ShipmentResults"}
	}
	for _, pr := range results.SelectElements("PackageResults") {
		label, err := packageLabel(pr)
		if err != nil {
			_ = resp.Close()
			return nil, err
		}
		resp.Labels = append(resp.Labels, label)
	}
	if len(resp.Labels) == 0 {
		return nil, &domain.MalformedResponse{Carrier: Name, Detail: "ship accept response has no PackageResults"}
	}

	// The control log receipt covers the whole shipment.
	if report := xmlnode.Text(results, "ControlLogReceipt/GraphicImage"); report != "" {
		art, err := labelfile.Decode(Name, "high_value_report", xmlnode.Text(results, "ControlLogReceipt/ImageFormat/Code"), report)
		if err != nil {
			_ = resp.Close()
			return nil, err
		}
		resp.Labels[0].HighValueReport = &art
	}
	return resp, nil
}

func packageLabel(pr *etree.Element) (domain.PackageLabel, error) {
	number := xmlnode.Text(pr, "TrackingNumber")
	if number == "" {
		return domain.PackageLabel{}, &domain.MalformedResponse{Carrier: Name, Detail: "package result has no TrackingNumber"}
	}
	art, err := labelfile.Decode(Name, "shipping_label", xmlnode.Text(pr, "LabelImage/LabelImageFormat/Code"), xmlnode.Text(pr, "LabelImage/GraphicImage"))
	if err != nil {
		return domain.PackageLabel{}, fmt.Errorf("package %s: %w", number, err)
	}
	return domain.PackageLabel{TrackingNumber: number, Label: art}, nil
}

func locationFromAddress(addr *etree.Element) *domain.Location {
	if addr == nil {
		return nil
	}
	return &domain.Location{
		Country:    xmlnode.Text(addr, "CountryCode"),
		PostalCode: xmlnode.Text(addr, "PostalCode"),
		State:      xmlnode.Text(addr, "StateProvinceCode"),
		City:       xmlnode.Text(addr, "City"),
		Address1:   xmlnode.Text(addr, "AddressLine1"),
		Address2:   xmlnode.Text(addr, "AddressLine2"),
		Address3:   xmlnode.Text(addr, "AddressLine3"),
	}
}

// parseDateTime assembles a UTC time from UPS's fixed-width YYYYMMDD date
// and optional HHMMSS time.
func parseDateTime(date, clock string) (time.Time, error) {
	if len(date) < 8 {
		return time.Time{}, fmt.Errorf("invalid date %q", date)
	}
	if len(clock) < 6 {
		clock += strings.Repeat("0", 6-len(clock))
	}
	return time.ParseInLocation("20060102150405", date[:8]+clock[:6], time.UTC)
}

func parseArrivalDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return t, nil
	}
	return parseDateTime(s, "")
}
