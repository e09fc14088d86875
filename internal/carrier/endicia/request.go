package endicia

import (
	"math"
	"net/url"
	"strings"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
	"github.com/99minutos/carrier-bindings/pkg/xmlnode"
)

type settings struct {
	accountID   string
	requesterID string
	password    string
	test        bool
}

// validate collects every missing address field of both parties into one
// error.
func validate(origin, destination domain.Location) error {
	missing := append(domain.MissingAddressFields("ShipFrom", origin), domain.MissingAddressFields("ShipTo", destination)...)
	if len(missing) == 0 {
		return nil
	}
	return &domain.ValidationError{Carrier: Name, Prefix: "USPS labels require", Missing: missing}
}

func buildLabelRequest(origin, destination domain.Location, pkg domain.Package, opts domain.Options, s settings) string {
	req := xmlnode.New("LabelRequest", func(root *xmlnode.Node) {
		if image := strings.ToUpper(strings.TrimSpace(opts.ImageType)); image != "" {
			root.Attr("ImageFormat", image)
		}

		root.Add("AccountID", s.accountID)
		root.Add("RequesterID", s.requesterID)
		root.Add("PassPhrase", s.password)
		root.Add("Test", yesNo(s.test))

		root.AddOptional("PartnerTransactionID", opts.TransactionID)
		root.AddOptional("PartnerCustomerID", opts.CustomerID)
		root.AddOptional("MailClass", opts.ServiceType)

		root.AddOptional("FromName", origin.Name)
		root.AddOptional("FromCity", origin.City)
		root.AddOptional("FromState", origin.State)
		root.AddOptional("FromPostalCode", origin.PostalCode)
		root.AddOptional("FromCompany", origin.Company)
		root.AddOptional("FromPhone", domain.Digits(origin.Phone))
		root.AddOptional("FromEMail", origin.Email)
		root.AddOptional("ReturnAddress1", origin.Address1)
		root.AddOptional("ReturnAddress2", origin.Address2)
		root.AddOptional("ReturnAddress3", origin.Address3)
		if origin.CountryCode() != "US" {
			root.AddOptional("FromCountry", origin.CountryCode())
		}

		root.AddOptional("ToName", destination.Name)
		root.AddOptional("ToCity", destination.City)
		root.AddOptional("ToState", destination.State)
		root.AddOptional("ToPostalCode", destination.PostalCode)
		root.AddOptional("ToCompany", destination.Company)
		root.AddOptional("ToPhone", domain.Digits(destination.Phone))
		root.AddOptional("ToEMail", destination.Email)
		root.AddOptional("ToAddress1", destination.Address1)
		root.AddOptional("ToAddress2", destination.Address2)
		root.AddOptional("ToAddress3", destination.Address3)
		if code := destination.CountryCode(); code != "US" {
			root.AddOptional("ToCountryCode", code)
		}

		root.Add("WeightOz", weightOz(pkg))
		root.Add("Value", pkg.Value.StringFixed(2))
		root.AddOptional("PackageType", opts.PackageType)

		if opts.Customs != nil {
			addCustoms(root, opts.Customs)
		}
	})
	return req.String()
}

func addCustoms(root *xmlnode.Node, c *domain.Customs) {
	root.AddOptional("IntegratedFormType", c.FormType)
	certify := "TRUE"
	if c.Certify != nil && !*c.Certify {
		certify = "FALSE"
	}
	root.Add("CustomsCertify", certify)
	root.AddOptional("CustomsSigner", c.Signer)
	root.AddNode("CustomsInfo", func(info *xmlnode.Node) {
		info.AddOptional("ContentsType", c.ContentsType)
		if len(c.Items) == 0 {
			return
		}
		info.AddNode("CustomsItems", func(items *xmlnode.Node) {
			for _, item := range c.Items {
				items.AddNode("CustomsItem", func(ci *xmlnode.Node) {
					ci.Add("Quantity", item.Quantity)
					ci.Add("Value", item.Value.String())
					ci.Add("Weight", item.Weight)
					ci.Add("Description", item.Description)
					country := domain.NormalizeCountry(item.Country)
					if country == "" {
						country = item.Country
					}
					ci.Add("CountryOfOrigin", country)
				})
			}
		})
	})
}

// formBody wraps the request document in the single form field Endicia reads.
func formBody(labelRequest string) []byte {
	return []byte(url.Values{"labelRequestXML": {labelRequest}}.Encode())
}

// weightOz is the package weight in ounces to one decimal, never below 0.1.
func weightOz(pkg domain.Package) float64 {
	oz := math.Round(pkg.Ounces()*10) / 10
	return math.Max(oz, 0.1)
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
