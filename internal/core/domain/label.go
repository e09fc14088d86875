package domain

import (
	"errors"
	"os"
)

// LabelArtifact is a decoded binary document backed by a temp file.
type LabelArtifact struct {
	Format string
	Data   []byte
	File   *os.File
}

// PackageLabel is the label produced for one package of a shipment.
type PackageLabel struct {
	TrackingNumber  string
	Label           LabelArtifact
	HighValueReport *LabelArtifact // only for high declared values
}

// LabelResponse is the result of a label purchase. The caller owns the temp
// files and must call Close once done with them.
type LabelResponse struct {
	Envelope
	Labels []PackageLabel
}

// Close closes and removes every temp file held by the response.
func (r *LabelResponse) Close() error {
	var errs []error
	for i := range r.Labels {
		errs = append(errs, r.Labels[i].Label.release())
		if hv := r.Labels[i].HighValueReport; hv != nil {
			errs = append(errs, hv.release())
		}
	}
	return errors.Join(errs...)
}

func (a *LabelArtifact) release() error {
	if a.File == nil {
		return nil
	}
	name := a.File.Name()
	closeErr := a.File.Close()
	a.File = nil
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Join(closeErr, err)
	}
	if errors.Is(closeErr, os.ErrClosed) {
		return nil
	}
	return closeErr
}
