package mzml

import (
	"fmt"
	"strconv"
)

const (
	cvSelectedIonMz           = `MS:1000744`
	cvIsolationWindowTargetMz = `MS:1000827`
)

// UpdatePrecursorMz applies adjust to the selected ion m/z and the
// isolation window target m/z of all precursors of a scan.
// It returns the number of selected ions that were updated.
func (f *MzML) UpdatePrecursorMz(scanIndex int, adjust func(float64) float64) (int, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0, ErrInvalidScanIndex
	}
	updated := 0
	spec := &f.content.Run.SpectrumList.Spectrum[scanIndex]
	for i := range spec.PrecursorList {
		for j := range spec.PrecursorList[i].Precursor {
			precursor := &spec.PrecursorList[i].Precursor[j]
			if _, err := adjustCvMz(precursor.IsolationWindow.CvPar,
				cvIsolationWindowTargetMz, adjust); err != nil {
				return updated, fmt.Errorf("spectrum %s: %w", spec.ID, err)
			}
			for k := range precursor.SelectedIonList.SelectedIon {
				n, err := adjustCvMz(precursor.SelectedIonList.SelectedIon[k].CvPar,
					cvSelectedIonMz, adjust)
				if err != nil {
					return updated, fmt.Errorf("spectrum %s: %w", spec.ID, err)
				}
				updated += n
			}
		}
	}
	return updated, nil
}

func adjustCvMz(cvPar []CVParam, accession string, adjust func(float64) float64) (int, error) {
	n := 0
	for i := range cvPar {
		if cvPar[i].Accession != accession {
			continue
		}
		mz, err := strconv.ParseFloat(cvPar[i].Value, 64)
		if err != nil {
			return n, fmt.Errorf("invalid mz value %q: %w", cvPar[i].Value, err)
		}
		cvPar[i].Value = formatFloat(adjust(mz), 64)
		n++
	}
	return n, nil
}
