// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

// This file contains code to help debugging, and is
// separated in from the rest in order not to litter
// the main code with debugging stuff

package main

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/524D/mzshift/internal/mzml"
)

var ErrRangeSpec = errors.New("invalid range specified")

type mzRange struct {
	min float64
	max float64
}

// Parse string like "-12:6" into 2 values, -12 and 6
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12:"), the default is assigned
func parseIntRange(r string, min int, max int) (int, int, error) {
	re := regexp.MustCompile(`^\s*(\-?\d*):(\-?\d*)\s*$`)
	m := re.FindStringSubmatch(r)
	if m == nil {
		// A single number selects just that spectrum
		s := strings.TrimSpace(r)
		if _, err := strconv.Atoi(s); err != nil {
			return min, max, ErrRangeSpec
		}
		m = []string{r, s, s}
	}
	minOut := min
	maxOut := max
	if m[1] != "" {
		minOut, _ = strconv.Atoi(m[1])
		if minOut < min {
			minOut = min
		}
	}
	if m[2] != "" {
		maxOut, _ = strconv.Atoi(m[2])
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

// Get the minimum and maximum mz in a slice of peaks
func mzRangePeaks(peaks []mzml.Peak) mzRange {
	var r mzRange

	if len(peaks) > 0 {
		r.min = peaks[0].Mz
		r.max = peaks[0].Mz
		for _, p := range peaks {
			m := p.Mz
			if m < r.min {
				r.min = m
			}
			if m > r.max {
				r.max = m
			}
		}
	}
	return r
}

// debugLogSpec prints the m/z range of a spectrum before and after
// adjustment, if the spectrum is in the debug range
func debugLogSpec(mzML *mzml.MzML, i int, before mzRange, after []mzml.Peak, par params) {
	if par.debugSpecs == `` || i < par.debugMin || i > par.debugMax {
		return
	}
	id, _ := mzML.ScanID(i)
	msLevel, _ := mzML.MSLevel(i)
	retentionTime, _ := mzML.RetentionTime(i)
	r := mzRangePeaks(after)
	fmt.Printf("Spectrum:%d id:%s ms%d rt:%f peaks:%d mz:%f-%f -> %f-%f\n",
		i, id, msLevel, retentionTime, len(after), before.min, before.max, r.min, r.max)
}

func debugLogPrecursorUpdate(i int, n int, par params) {
	if par.debugSpecs == `` || i < par.debugMin || i > par.debugMax {
		return
	}
	fmt.Printf("Spectrum:%d precursors updated:%d\n", i, n)
}
