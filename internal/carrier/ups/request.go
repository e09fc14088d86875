package ups

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
	"github.com/99minutos/carrier-bindings/pkg/xmlnode"
)

// settings is the client config merged with per-call overrides.
type settings struct {
	key                string
	login              string
	password           string
	originAccount      string
	destinationAccount string
	test               bool
}

func buildAccessRequest(s settings) string {
	return xmlnode.New("AccessRequest", func(root *xmlnode.Node) {
		root.Add("AccessLicenseNumber", s.key)
		root.Add("UserId", s.login)
		root.Add("Password", s.password)
	}).String()
}

func buildRateRequest(origin, destination domain.Location, packages []domain.Package, opts domain.Options, s settings) (string, error) {
	if len(packages) == 0 {
		return "", &domain.ValidationError{Carrier: Name, Missing: []string{"packages"}}
	}
	if err := requireCountries(origin, destination, opts.Shipper); err != nil {
		return "", err
	}
	pickup := opts.PickupType
	if pickup == "" {
		pickup = domain.PickupDaily
	}
	pickupCode, ok := pickupCodes[pickup]
	if !ok {
		return "", &domain.ConfigurationError{Carrier: Name, Detail: fmt.Sprintf("unknown pickup type %q", pickup)}
	}
	classification := opts.CustomerClassification
	if classification == "" {
		classification = domain.DefaultClassification(pickup)
	}
	classificationCode, ok := classificationCodes[classification]
	if !ok {
		return "", &domain.ConfigurationError{Carrier: Name, Detail: fmt.Sprintf("unknown customer classification %q", classification)}
	}

	req := xmlnode.New("RatingServiceSelectionRequest", func(root *xmlnode.Node) {
		root.AddNode("Request", func(r *xmlnode.Node) {
			r.Add("RequestAction", "Rate")
			r.Add("RequestOption", "Shop")
		})
		root.AddNode("PickupType", func(p *xmlnode.Node) {
			p.Add("Code", pickupCode)
		})
		root.AddNode("CustomerClassification", func(c *xmlnode.Node) {
			c.Add("Code", classificationCode)
		})
		root.AddNode("Shipment", func(shipment *xmlnode.Node) {
			addParties(shipment, origin, destination, opts, s)
			addPackages(shipment, origin, packages)
		})
	})
	return req.String(), nil
}

func buildTrackingRequest(trackingNumber string) (string, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return "", &domain.ValidationError{Carrier: Name, Missing: []string{"tracking number"}}
	}
	req := xmlnode.New("TrackRequest", func(root *xmlnode.Node) {
		root.AddNode("Request", func(r *xmlnode.Node) {
			r.Add("RequestAction", "Track")
			r.Add("RequestOption", "1")
		})
		root.Add("TrackingNumber", trackingNumber)
	})
	return req.String(), nil
}

func buildTransitTimeRequest(origin, destination domain.Location, packages []domain.Package, opts domain.Options, now time.Time) (string, error) {
	if len(packages) == 0 {
		return "", &domain.ValidationError{Carrier: Name, Missing: []string{"packages"}}
	}
	from := origin
	var shipper *domain.Location
	if sh := opts.Shipper; sh != nil {
		from.City = firstNonBlank(sh.City, origin.City)
		from.State = firstNonBlank(sh.State, origin.State)
		from.Country = firstNonBlank(sh.Country, origin.Country)
		from.PostalCode = firstNonBlank(sh.PostalCode, origin.PostalCode)
		shipper = &from
	}
	if err := requireCountries(origin, destination, shipper); err != nil {
		return "", err
	}
	pickupDate := now
	if !opts.PickupDate.IsZero() {
		pickupDate = opts.PickupDate
	}
	imperial := domain.UsesImperialUnits(origin)
	var total float64
	for _, p := range packages {
		total += round3(weightIn(p, imperial))
	}
	currency := firstNonBlank(opts.CurrencyCode, "USD")

	req := xmlnode.New("TimeInTransitRequest", func(root *xmlnode.Node) {
		root.AddNode("Request", func(r *xmlnode.Node) {
			r.Add("RequestAction", "TimeInTransit")
		})
		root.Add("CustomerContext", "Time in Transit Request")
		// TimeInTransit is only served on XPCI 1.0001.
		root.Add("XpciVersion", "1.0001")
		root.AddNode("TransitFrom", func(t *xmlnode.Node) {
			t.AddNode("AddressArtifactFormat", func(a *xmlnode.Node) {
				a.Add("PoliticalDivision2", from.City)
				a.Add("PoliticalDivision1", from.State)
				a.Add("CountryCode", from.CountryCode())
				a.Add("PostCodePrimaryLow", from.PostalCode)
			})
		})
		root.AddNode("TransitTo", func(t *xmlnode.Node) {
			t.AddNode("AddressArtifactFormat", func(a *xmlnode.Node) {
				a.Add("PoliticalDivision2", destination.City)
				a.Add("PoliticalDivision1", destination.State)
				a.Add("CountryCode", destination.CountryCode())
				a.Add("PostCodePrimaryLow", destination.PostalCode)
				if !destination.Commercial {
					a.Add("ResidentialAddressIndicator", nil)
				}
			})
		})
		root.Add("PickupDate", pickupDate.Format("20060102"))
		root.AddNode("ShipmentWeight", func(w *xmlnode.Node) {
			w.AddNode("UnitOfMeasurement", func(u *xmlnode.Node) {
				u.Add("Code", weightUnit(imperial))
			})
			w.Add("Weight", domain.RoundMeasure(total))
		})
		root.Add("TotalPackagesInShipment", len(packages))
		root.AddNode("InvoiceLineTotal", func(inv *xmlnode.Node) {
			inv.Add("CurrencyCode", currency)
			inv.Add("MonetaryValue", opts.InsuredValue.String())
		})
	})
	return req.Document(), nil
}

func buildShipConfirmRequest(origin, destination domain.Location, packages []domain.Package, opts domain.Options, s settings) (string, error) {
	if len(packages) == 0 {
		return "", &domain.ValidationError{Carrier: Name, Missing: []string{"packages"}}
	}
	if err := requireCountries(origin, destination, opts.Shipper); err != nil {
		return "", err
	}
	payment, err := paymentBuilder(opts, s)
	if err != nil {
		return "", err
	}
	labelSpec, err := labelSpecBuilder(opts.ImageType)
	if err != nil {
		return "", err
	}

	req := xmlnode.New("ShipmentConfirmRequest", func(root *xmlnode.Node) {
		root.AddNode("Request", func(r *xmlnode.Node) {
			r.Add("RequestAction", "ShipConfirm")
			r.Add("RequestOption", "nonvalidate")
			r.AddNode("TransactionReference", func(ref *xmlnode.Node) {
				ref.Add("CustomerContext", customerContext(destination))
			})
		})
		root.AddNode("Shipment", func(shipment *xmlnode.Node) {
			if opts.ReturnServiceCode != "" {
				shipment.AddNode("ReturnService", func(rs *xmlnode.Node) {
					rs.Add("Code", opts.ReturnServiceCode)
				})
			}
			shipment.AddOptional("Description", opts.Description)
			addParties(shipment, origin, destination, opts, s)
			shipment.AddNode("PaymentInformation", payment)
			shipment.AddNode("Service", func(svc *xmlnode.Node) {
				svc.Add("Code", serviceCodeFor(opts.ServiceType))
			})
			addPackages(shipment, origin, packages)
		})
		root.AddNode("LabelSpecification", labelSpec)
	})
	return req.String(), nil
}

func buildShipAcceptRequest(digest string, destination domain.Location) string {
	return xmlnode.New("ShipmentAcceptRequest", func(root *xmlnode.Node) {
		root.AddNode("Request", func(r *xmlnode.Node) {
			r.Add("RequestAction", "ShipAccept")
			r.AddNode("TransactionReference", func(ref *xmlnode.Node) {
				ref.Add("CustomerContext", customerContext(destination))
			})
		})
		root.Add("ShipmentDigest", digest)
	}).String()
}

// requireCountries reports every party whose country does not resolve to an
// ISO code. The origin country also picks the unit system.
func requireCountries(origin, destination domain.Location, shipper *domain.Location) error {
	missing := append(domain.MissingCountry("ShipFrom", origin), domain.MissingCountry("ShipTo", destination)...)
	if shipper != nil {
		missing = append(missing, domain.MissingCountry("Shipper", *shipper)...)
	}
	if len(missing) == 0 {
		return nil
	}
	return &domain.ValidationError{Carrier: Name, Prefix: "UPS requests require", Missing: missing}
}

func customerContext(loc domain.Location) string {
	return fmt.Sprintf("%s, %s %s", loc.City, loc.State, loc.PostalCode)
}

// addParties writes Shipper, ShipTo and, when the shipper differs from the
// origin, ShipFrom.
func addParties(shipment *xmlnode.Node, origin, destination domain.Location, opts domain.Options, s settings) {
	shipper := origin
	if opts.Shipper != nil {
		shipper = *opts.Shipper
	}
	addLocation(shipment, "Shipper", shipper, s)
	addLocation(shipment, "ShipTo", destination, s)
	if opts.Shipper != nil && *opts.Shipper != origin {
		addLocation(shipment, "ShipFrom", origin, s)
	}
}

func addLocation(parent *xmlnode.Node, name string, loc domain.Location, s settings) {
	parent.AddNode(name, func(n *xmlnode.Node) {
		n.AddOptional("PhoneNumber", domain.Digits(loc.Phone))
		n.AddOptional("FaxNumber", domain.Digits(loc.Fax))
		if name == "Shipper" {
			n.Add("Name", loc.Name)
		}
		n.AddOptional("CompanyName", loc.Company)
		n.AddOptional("AttentionName", loc.AttentionName)
		n.AddOptional("TaxIdentificationNumber", loc.TaxID)
		switch {
		case name == "Shipper" && s.originAccount != "":
			n.Add("ShipperNumber", s.originAccount)
		case name == "ShipTo" && s.destinationAccount != "":
			n.Add("ShipperAssignedIdentificationNumber", s.destinationAccount)
		}
		n.AddNode("Address", func(a *xmlnode.Node) {
			a.AddOptional("AddressLine1", loc.Address1)
			a.AddOptional("AddressLine2", loc.Address2)
			a.AddOptional("AddressLine3", loc.Address3)
			a.AddOptional("City", loc.City)
			a.AddOptional("StateProvinceCode", loc.State)
			a.AddOptional("PostalCode", loc.PostalCode)
			a.AddOptional("CountryCode", loc.CountryCode())
			if !loc.Commercial {
				a.Add("ResidentialAddressIndicator", true)
			}
		})
	})
}

func addPackages(shipment *xmlnode.Node, origin domain.Location, packages []domain.Package) {
	imperial := domain.UsesImperialUnits(origin)
	for _, p := range packages {
		shipment.AddNode("Package", func(pkg *xmlnode.Node) {
			pkg.AddNode("PackagingType", func(pt *xmlnode.Node) {
				pt.Add("Code", "02")
			})
			pkg.AddNode("Dimensions", func(d *xmlnode.Node) {
				d.AddNode("UnitOfMeasurement", func(u *xmlnode.Node) {
					u.Add("Code", lengthUnit(imperial))
				})
				for _, axis := range domain.Axes {
					v := p.Centimeters(axis)
					if imperial {
						v = p.Inches(axis)
					}
					d.Add(axis.String(), domain.RoundMeasure(v))
				}
			})
			pkg.AddNode("PackageWeight", func(w *xmlnode.Node) {
				w.AddNode("UnitOfMeasurement", func(u *xmlnode.Node) {
					u.Add("Code", weightUnit(imperial))
				})
				w.Add("Weight", domain.RoundMeasure(weightIn(p, imperial)))
			})
		})
	}
}

func paymentBuilder(opts domain.Options, s settings) (func(*xmlnode.Node), error) {
	payType := opts.PayType
	if payType == "" {
		payType = domain.PayPrepaid
	}
	kind, ok := paymentTypes[payType]
	if !ok {
		return nil, &domain.ConfigurationError{Carrier: Name, Detail: fmt.Sprintf("unknown pay type %q; use prepaid, bill_third_party or freight_collect", payType)}
	}
	switch kind {
	case "Prepaid":
		if s.originAccount == "" {
			return nil, &domain.ConfigurationError{Carrier: Name, Detail: "prepaid labels require an origin account"}
		}
		return func(p *xmlnode.Node) {
			p.AddNode("Prepaid", func(pre *xmlnode.Node) {
				pre.AddNode("BillShipper", func(b *xmlnode.Node) {
					b.Add("AccountNumber", s.originAccount)
				})
			})
		}, nil
	case "BillThirdParty":
		if opts.BillingAccount == "" {
			return nil, &domain.ConfigurationError{Carrier: Name, Detail: "bill_third_party labels require a billing account"}
		}
		return func(p *xmlnode.Node) {
			p.AddNode("BillThirdParty", func(bt *xmlnode.Node) {
				bt.AddNode("BillThirdPartyShipper", func(shipper *xmlnode.Node) {
					shipper.Add("AccountNumber", opts.BillingAccount)
					shipper.AddNode("ThirdParty", func(tp *xmlnode.Node) {
						tp.AddNode("Address", func(a *xmlnode.Node) {
							a.AddOptional("PostalCode", opts.BillingZip)
							a.AddOptional("CountryCode", domain.NormalizeCountry(opts.BillingCountry))
						})
					})
				})
			})
		}, nil
	case "FreightCollect":
		if opts.BillingAccount == "" {
			return nil, &domain.ConfigurationError{Carrier: Name, Detail: "freight_collect labels require a billing account"}
		}
		return func(p *xmlnode.Node) {
			p.AddNode("FreightCollect", func(fc *xmlnode.Node) {
				fc.AddNode("BillReceiver", func(b *xmlnode.Node) {
					b.Add("AccountNumber", opts.BillingAccount)
				})
			})
		}, nil
	default:
		return nil, &domain.ConfigurationError{Carrier: Name, Detail: fmt.Sprintf("pay type %q is not supported", payType)}
	}
}

func labelSpecBuilder(imageType string) (func(*xmlnode.Node), error) {
	image := strings.ToUpper(strings.TrimSpace(imageType))
	if image == "" {
		image = "GIF"
	}
	switch image {
	case "GIF":
		return func(spec *xmlnode.Node) {
			spec.AddNode("LabelPrintMethod", func(m *xmlnode.Node) { m.Add("Code", image) })
			spec.Add("HTTPUserAgent", "Mozilla/5.0")
			spec.AddNode("LabelImageFormat", func(f *xmlnode.Node) { f.Add("Code", "GIF") })
		}, nil
	case "EPL":
		return func(spec *xmlnode.Node) {
			spec.AddNode("LabelPrintMethod", func(m *xmlnode.Node) { m.Add("Code", image) })
			spec.AddNode("LabelStockSize", func(sz *xmlnode.Node) {
				sz.Add("Height", "4")
				sz.Add("Width", "6")
			})
		}, nil
	default:
		return nil, &domain.ConfigurationError{Carrier: Name, Detail: fmt.Sprintf("unknown image type %q; use GIF or EPL", imageType)}
	}
}

func weightIn(p domain.Package, imperial bool) float64 {
	if imperial {
		return p.Pounds()
	}
	return p.Kilograms()
}

func weightUnit(imperial bool) string {
	if imperial {
		return "LBS"
	}
	return "KGS"
}

func lengthUnit(imperial bool) string {
	if imperial {
		return "IN"
	}
	return "CM"
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func firstNonBlank(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
