package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
	"github.com/99minutos/carrier-bindings/internal/core/ports"
)

// --- Request → Service input ---

func toShipmentQuery(carrier string, req shipmentRequest) (ports.ShipmentQuery, error) {
	opts, err := toOptions(req.Options)
	if err != nil {
		return ports.ShipmentQuery{}, err
	}
	pkgs := make([]domain.Package, 0, len(req.Packages))
	for _, p := range req.Packages {
		pkgs = append(pkgs, toPackage(p))
	}
	return ports.ShipmentQuery{
		Carrier:     carrier,
		Origin:      toLocation(req.Origin),
		Destination: toLocation(req.Destination),
		Packages:    pkgs,
		Options:     opts,
	}, nil
}

func toLocation(l locationRequest) domain.Location {
	return domain.Location{
		Name:          l.Name,
		Company:       l.Company,
		AttentionName: l.AttentionName,
		TaxID:         l.TaxID,
		Address1:      l.Address1,
		Address2:      l.Address2,
		Address3:      l.Address3,
		City:          l.City,
		State:         l.State,
		PostalCode:    l.PostalCode,
		Country:       l.Country,
		Phone:         l.Phone,
		Fax:           l.Fax,
		Email:         l.Email,
		Commercial:    l.Commercial,
	}
}

func toPackage(p packageRequest) domain.Package {
	var pkg domain.Package
	if p.Units == "metric" {
		pkg = domain.NewMetricPackage(p.Weight, p.Dimensions, p.Value)
	} else {
		pkg = domain.NewImperialPackage(p.Weight, p.Dimensions, p.Value)
	}
	if p.Currency != "" {
		pkg = pkg.WithCurrency(strings.ToUpper(p.Currency))
	}
	return pkg
}

func toOptions(o optionsRequest) (domain.Options, error) {
	opts := domain.Options{
		Test:                   o.Test,
		PickupType:             domain.PickupType(o.PickupType),
		CustomerClassification: domain.Classification(o.CustomerClassification),
		ServiceType:            o.ServiceType,
		PayType:                domain.PayType(o.PayType),
		OriginAccount:          o.OriginAccount,
		DestinationAccount:     o.DestinationAccount,
		BillingAccount:         o.BillingAccount,
		BillingZip:             o.BillingZip,
		BillingCountry:         o.BillingCountry,
		ImageType:              o.ImageType,
		TransactionID:          o.TransactionID,
		CustomerID:             o.CustomerID,
		PackageType:            o.PackageType,
		CurrencyCode:           strings.ToUpper(o.CurrencyCode),
		InsuredValue:           o.InsuredValue,
		Description:            o.Description,
		ReturnServiceCode:      o.ReturnServiceCode,
	}
	if o.Shipper != nil {
		shipper := toLocation(*o.Shipper)
		opts.Shipper = &shipper
	}
	if o.PickupDate != "" {
		d, err := time.ParseInLocation("2006-01-02", o.PickupDate, time.UTC)
		if err != nil {
			return domain.Options{}, echo.NewHTTPError(http.StatusBadRequest, "options.pickup_date must be formatted as 2006-01-02")
		}
		opts.PickupDate = d
	}
	if o.Customs != nil {
		opts.Customs = toCustoms(*o.Customs)
	}
	return opts, nil
}

func toCustoms(c customsRequest) *domain.Customs {
	out := &domain.Customs{
		FormType:     c.FormType,
		Certify:      c.Certify,
		Signer:       c.Signer,
		ContentsType: c.ContentsType,
	}
	for _, it := range c.Items {
		out.Items = append(out.Items, domain.CustomsItem{
			Quantity:    it.Quantity,
			Value:       it.Value,
			Weight:      it.Weight,
			Description: it.Description,
			Country:     it.Country,
		})
	}
	return out
}

// trackingOptions reads the optional ?test= flag of a tracking lookup.
func trackingOptions(c echo.Context) (domain.Options, error) {
	raw := c.QueryParam("test")
	if raw == "" {
		return domain.Options{}, nil
	}
	test, err := strconv.ParseBool(raw)
	if err != nil {
		return domain.Options{}, echo.NewHTTPError(http.StatusBadRequest, "test must be a boolean")
	}
	return domain.Options{Test: &test}, nil
}

// --- Service output → Response ---

func toBatchTrackingResponse(carrier string, results []ports.TrackingResult) batchTrackingResponse {
	out := batchTrackingResponse{Carrier: carrier, Results: make([]batchTrackingItem, 0, len(results))}
	for _, r := range results {
		item := batchTrackingItem{TrackingNumber: r.TrackingNumber, Tracking: r.Response}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		out.Results = append(out.Results, item)
	}
	return out
}

func toLabelResponse(receipt *ports.LabelReceipt, now time.Time) labelResponse {
	out := labelResponse{
		Carrier:       receipt.Carrier,
		TransactionID: receipt.TransactionID,
		Message:       receipt.Message,
		Labels:        make([]labelItem, 0, len(receipt.Labels)),
		CreatedAt:     now.UTC(),
	}
	for _, l := range receipt.Labels {
		out.Labels = append(out.Labels, labelItem{
			TrackingNumber:  l.TrackingNumber,
			Format:          l.Format,
			ArchiveID:       l.ArchiveID,
			Image:           l.Image,
			HighValueReport: l.HighValueReport,
		})
	}
	return out
}
