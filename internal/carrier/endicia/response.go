package endicia

import (
	"fmt"

	"github.com/99minutos/carrier-bindings/internal/carrier/labelfile"
	"github.com/99minutos/carrier-bindings/internal/core/domain"
	"github.com/99minutos/carrier-bindings/pkg/xmlnode"
)

// parseLabelResponse reads a LabelRequestResponse. The shared
// Response/ResponseStatusCode block wins when present; otherwise Endicia's
// own Status element decides, with 0 meaning success.
func parseLabelResponse(raw []byte, format string) (*domain.LabelResponse, error) {
	root, err := xmlnode.Parse(raw)
	if err != nil {
		return nil, &domain.MalformedResponse{Carrier: Name, Detail: err.Error()}
	}

	success := xmlnode.Text(root, "Status") == "0"
	if code := xmlnode.Text(root, "Response/ResponseStatusCode"); code != "" {
		success = code == "1"
	}
	resp := &domain.LabelResponse{Envelope: domain.Envelope{
		Success: success,
		Message: xmlnode.FirstText(root, "Response/Error/ErrorDescription", "Response/ResponseStatusDescription", "ErrorMessage"),
		Raw:     string(raw),
	}}
	if !success {
		return resp, nil
	}

	number := xmlnode.Text(root, "TrackingNumber")
	if number == "" {
		return nil, &domain.MalformedResponse{Carrier: Name, Detail: "label response has no TrackingNumber"}
	}

	images := []string{xmlnode.Text(root, "Base64LabelImage")}
	if images[0] == "" {
		images = images[:0]
		for _, part := range root.FindElements("Label/Image") {
			images = append(images, part.Text())
		}
	}
	if len(images) == 0 {
		return nil, &domain.MalformedResponse{Carrier: Name, Detail: "label response has no image"}
	}
	for i, img := range images {
		art, err := labelfile.Decode(Name, "shipping_label", format, img)
		if err != nil {
			_ = resp.Close()
			return nil, fmt.Errorf("label part %d: %w", i+1, err)
		}
		resp.Labels = append(resp.Labels, domain.PackageLabel{TrackingNumber: number, Label: art})
	}
	return resp, nil
}
