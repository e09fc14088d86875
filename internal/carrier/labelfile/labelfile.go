// Package labelfile writes decoded label images to temp files owned by the
// caller.
package labelfile

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
)

// Write stores data in a new temp file whose extension is the lowercased
// format and rewinds it for reading.
func Write(carrier, prefix, format string, data []byte) (domain.LabelArtifact, error) {
	ext := strings.ToLower(strings.TrimSpace(format))
	if ext == "" {
		return domain.LabelArtifact{}, &domain.MalformedResponse{Carrier: carrier, Detail: "label image format missing"}
	}
	f, err := os.CreateTemp("", prefix+"-*."+ext)
	if err != nil {
		return domain.LabelArtifact{}, &domain.MalformedResponse{Carrier: carrier, Detail: fmt.Sprintf("create label file: %v", err)}
	}
	if _, err := f.Write(data); err != nil {
		discard(f)
		return domain.LabelArtifact{}, &domain.MalformedResponse{Carrier: carrier, Detail: fmt.Sprintf("write label file: %v", err)}
	}
	if _, err := f.Seek(0, 0); err != nil {
		discard(f)
		return domain.LabelArtifact{}, &domain.MalformedResponse{Carrier: carrier, Detail: fmt.Sprintf("rewind label file: %v", err)}
	}
	return domain.LabelArtifact{Format: strings.ToUpper(ext), Data: data, File: f}, nil
}

// Decode base64-decodes encoded and writes the result like Write.
func Decode(carrier, prefix, format, encoded string) (domain.LabelArtifact, error) {
	encoded = strings.Join(strings.Fields(encoded), "")
	if encoded == "" {
		return domain.LabelArtifact{}, &domain.MalformedResponse{Carrier: carrier, Detail: "label image missing"}
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return domain.LabelArtifact{}, &domain.MalformedResponse{Carrier: carrier, Detail: fmt.Sprintf("decode label image: %v", err)}
	}
	return Write(carrier, prefix, format, data)
}

func discard(f *os.File) {
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
}
