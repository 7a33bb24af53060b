// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/524D/mzshift/internal/mzml"
)

// The kinds of m/z shift that we can apply
type shiftUnit int

const (
	unitPPM shiftUnit = iota
	unitTh
)

// massShift is a calibration offset, either relative (ppm)
// or absolute (Thomson)
type massShift struct {
	unit  shiftUnit
	value float64
}

var errShiftMode = errors.New("ppm or th must be specified, but not both")

type adjustStats struct {
	spectra    int // spectra with at least one peak
	peaks      int
	precursors int // selected ions, only counted with --precursors
}

func (s massShift) adjust(mz float64) float64 {
	if s.unit == unitPPM {
		return mz + mz*(s.value/1e6)
	}
	return mz + s.value
}

func (s massShift) String() string {
	v := strconv.FormatFloat(s.value, 'g', -1, 64)
	if s.unit == unitPPM {
		return v + " ppm"
	}
	return v + " Th"
}

// resolveShift determines the shift from the command line parameters.
// Exactly one of ppm and th must be set.
func resolveShift(par params) (massShift, error) {
	switch {
	case par.ppmSet && !par.thSet:
		return massShift{unit: unitPPM, value: par.ppm}, nil
	case par.thSet && !par.ppmSet:
		return massShift{unit: unitTh, value: par.th}, nil
	}
	return massShift{}, fmt.Errorf("%w: %w", errUsage, errShiftMode)
}

// adjustMzML shifts the m/z values of all peaks in all spectra.
// Intensity arrays are not re-encoded, so they stay bitwise the same.
// Spectra without peaks are left as they are.
func adjustMzML(mzML *mzml.MzML, shift massShift, par params) (adjustStats, error) {
	var stats adjustStats

	for i := 0; i < mzML.NumSpecs(); i++ {
		peaks, err := mzML.ReadScan(i)
		if err != nil {
			return stats, fmt.Errorf("ReadScan spectrum %d: %w", i, err)
		}
		if len(peaks) > 0 {
			before := mzRangePeaks(peaks)
			for j := range peaks {
				peaks[j].Mz = shift.adjust(peaks[j].Mz)
			}
			if err := mzML.UpdateScan(i, peaks, true, false); err != nil {
				return stats, fmt.Errorf("UpdateScan spectrum %d: %w", i, err)
			}
			stats.spectra++
			stats.peaks += len(peaks)
			debugLogSpec(mzML, i, before, peaks, par)
		}
		if par.precursors {
			n, err := mzML.UpdatePrecursorMz(i, shift.adjust)
			if err != nil {
				return stats, err
			}
			stats.precursors += n
			debugLogPrecursorUpdate(i, n, par)
		}
	}
	return stats, nil
}
