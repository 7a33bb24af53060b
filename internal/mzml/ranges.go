package mzml

import (
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// Spectrum CV terms that cache values derived from the peak data
const (
	cvLowestObservedMz  = `MS:1000528`
	cvHighestObservedMz = `MS:1000527`
	cvBasePeakMz        = `MS:1000504`
)

// refreshSpectrumSummary recomputes the cached m/z terms of a spectrum.
// Terms that are not present are not added. If the m/z array is stored
// in 32 bits, the terms are given with the precision of the stored values.
func refreshSpectrumSummary(spec *spectrum, p []Peak, bits64 bool) {
	if len(p) == 0 {
		return
	}
	bitSize := 64
	if !bits64 {
		bitSize = 32
	}
	mz, intens := splitPeaks(p)
	if bitSize == 32 {
		for i := range mz {
			mz[i] = float64(float32(mz[i]))
		}
	}
	for i := range spec.CvPar {
		cv := &spec.CvPar[i]
		switch cv.Accession {
		case cvLowestObservedMz:
			cv.Value = formatFloat(floats.Min(mz), bitSize)
		case cvHighestObservedMz:
			cv.Value = formatFloat(floats.Max(mz), bitSize)
		case cvBasePeakMz:
			cv.Value = formatFloat(mz[floats.MaxIdx(intens)], bitSize)
		}
	}
}

// Ranges computes the m/z and intensity bounds over all spectra.
// Empty spectra don't contribute. If there are no peaks at all,
// the zero Ranges is returned.
func (f *MzML) Ranges() (Ranges, error) {
	var r Ranges
	for i := 0; i < f.NumSpecs(); i++ {
		p, err := f.ReadScan(i)
		if err != nil {
			return r, err
		}
		if len(p) == 0 {
			continue
		}
		mz, intens := splitPeaks(p)
		minMz, maxMz := floats.Min(mz), floats.Max(mz)
		minIntens, maxIntens := floats.Min(intens), floats.Max(intens)
		if r.Peaks == 0 {
			r = Ranges{MinMz: minMz, MaxMz: maxMz, MinIntens: minIntens, MaxIntens: maxIntens}
		} else {
			r.MinMz = min(r.MinMz, minMz)
			r.MaxMz = max(r.MaxMz, maxMz)
			r.MinIntens = min(r.MinIntens, minIntens)
			r.MaxIntens = max(r.MaxIntens, maxIntens)
		}
		r.Peaks += len(p)
	}
	return r, nil
}

func splitPeaks(p []Peak) (mz []float64, intens []float64) {
	mz = make([]float64, len(p))
	intens = make([]float64, len(p))
	for i, peak := range p {
		mz[i] = peak.Mz
		intens[i] = peak.Intens
	}
	return mz, intens
}

// formatFloat gives the shortest text that reads back as the same
// value of the given bit size
func formatFloat(v float64, bitSize int) string {
	return strconv.FormatFloat(v, 'f', -1, bitSize)
}
