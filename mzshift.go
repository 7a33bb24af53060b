// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/524D/mzshift/internal/mzml"
)

// Program name and version, appended to software list in mzML output
const progName = "mzShift"

var progVersion = `Unknown`

const (
	infoDefault = iota
	infoSilent
	infoVerbose
)

// Command line parameters
type params struct {
	mzMLFilename string
	inPlace      bool
	suffix       string
	suffixSet    bool
	ofname       string
	ofnameSet    bool
	ppm          float64 // m/z shift in ppm
	ppmSet       bool
	th           float64 // m/z shift in Thomson
	thSet        bool
	precursors   bool   // Also shift precursor m/z values
	debugSpecs   string // Print debug output for given spectrum range
	debugMin     int
	debugMax     int
	verbosity    int // Verbosity of progress messages (infoDefault...)
}

// errUsage marks errors caused by invalid command line arguments
var errUsage = errors.New("usage error")

func addOutputFlags(fs *pflag.FlagSet, par *params) {
	fs.BoolVar(&par.inPlace, "inPlace", false,
		"modify the mzML file in place")
	fs.StringVar(&par.suffix, "suffix", "",
		"add `suffix` after output file basename")
	fs.StringVarP(&par.ofname, "ofname", "o", "",
		"output `filename`")
}

func addShiftFlags(fs *pflag.FlagSet, par *params) {
	fs.Float64VarP(&par.ppm, "ppm", "p", 0,
		"m/z adjustment in parts per million (ppm)")
	fs.Float64VarP(&par.th, "th", "t", 0,
		"m/z adjustment in Thomson (Th)")
	fs.BoolVar(&par.precursors, "precursors", false,
		`also shift precursor m/z values (selected ion and
isolation window target)`)
}

func newRootCmd() *cobra.Command {
	var par params
	var verbose, quiet bool

	cmd := &cobra.Command{
		Use:   "mzshift [flags] <mzMLfile>",
		Short: "Adjust all m/z values in an mzML file by a specified mass or ppm",
		Long: `This program shifts every m/z value of every spectrum in an mzML file
by a fixed offset, given either in parts per million (ppm) or in Thomson (Th).
Intensities are left untouched.

Exactly one output option (--inPlace, --suffix or --ofname) and exactly
one shift option (--ppm or --th) must be given.`,
		Example: `  mzshift --ppm 10 --suffix cal yeast.mzML
    Shift all m/z values by +10 ppm, write result to yeast_cal.mzML

  mzshift -t -0.0015 --inPlace yeast.mzML
    Shift all m/z values by -0.0015 Th, overwrite yeast.mzML`,
		Version:       progVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: last argument must be name of mzML file", errUsage)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			par.mzMLFilename = args[0]
			par.suffixSet = fs.Changed("suffix")
			par.ofnameSet = fs.Changed("ofname")
			par.ppmSet = fs.Changed("ppm")
			par.thSet = fs.Changed("th")
			if verbose {
				par.verbosity = infoVerbose
			}
			if quiet {
				par.verbosity = infoSilent
			}
			return shiftMzMLFile(par)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	fs := cmd.Flags()
	fs.SortFlags = false
	addOutputFlags(fs, &par)
	addShiftFlags(fs, &par)
	fs.StringVar(&par.debugSpecs, "debug", "",
		"print debug output for given spectrum `range` e.g. 3:6")
	fs.BoolVar(&verbose, "verbose", false,
		`print more verbose progress information`)
	fs.BoolVar(&quiet, "quiet", false,
		`don't print any output except for errors`)
	return cmd
}

// shiftMzMLFile runs the whole pipeline for one mzML file.
// All arguments are checked before the input file is opened.
func shiftMzMLFile(par params) error {
	outFilename, err := resolveOutput(par)
	if err != nil {
		return err
	}
	shift, err := resolveShift(par)
	if err != nil {
		return err
	}
	if par.debugSpecs != `` {
		par.debugMin, par.debugMax, err = parseIntRange(par.debugSpecs, 0, math.MaxInt32)
		if err != nil {
			return fmt.Errorf("%w: invalid value for parameter 'debug': %w", errUsage, err)
		}
	}

	t := time.Now()
	par.info("Loading %q", par.mzMLFilename)
	mzML, err := readMzMLFile(par.mzMLFilename)
	if err != nil {
		return err
	}
	par.timing("Loading", t)

	t = time.Now()
	par.info("Adjusting m/z values by %s", shift)
	stats, err := adjustMzML(&mzML, shift, par)
	if err != nil {
		return err
	}
	par.timing("Adjusting", t)
	if par.verbosity != infoSilent {
		log.Printf("Spectra: %d adjusted of %d, peaks: %d", stats.spectra, mzML.NumSpecs(), stats.peaks)
		if par.precursors {
			log.Printf("Updated precursors: %d", stats.precursors)
		}
	}

	if par.verbosity == infoVerbose {
		ranges, err := mzML.Ranges()
		if err != nil {
			return err
		}
		log.Printf("m/z range: %f-%f, intensity range: %g-%g",
			ranges.MinMz, ranges.MaxMz, ranges.MinIntens, ranges.MaxIntens)
	}

	appendProvenance(&mzML, shift, par.precursors)

	t = time.Now()
	par.info("Writing adjusted values to: %q", outFilename)
	if err := writeMzMLFile(&mzML, outFilename); err != nil {
		return err
	}
	par.timing("Writing", t)
	return nil
}

// Data processing steps to be added to mzML file
func appendProvenance(mzML *mzml.MzML, shift massShift, precursors bool) {
	swID := mzML.AppendSoftwareInfo(progName, progVersion, mzml.CVParam{
		CvRef:     `MS`,
		Accession: `MS:1000799`,
		Name:      `custom unreleased software tool`,
		Value:     progName,
	})
	methods := []mzml.ProcessingMethod{
		{
			Count:       0,
			SoftwareRef: swID,
			CvPar: []mzml.CVParam{
				{
					CvRef:     `MS`,
					Accession: `MS:1001485`,
					Name:      `m/z calibration`,
				},
			},
			UserPar: []mzml.UserParam{
				{
					Name:  `m/z shift`,
					Value: shift.String(),
					Type:  `xsd:string`,
				},
			},
		},
	}
	if precursors {
		methods = append(methods, mzml.ProcessingMethod{
			Count:       1,
			SoftwareRef: swID,
			CvPar: []mzml.CVParam{
				{
					CvRef:     `MS`,
					Accession: `MS:1000780`,
					Name:      `precursor recalculation`,
				},
			},
		})
	}
	mzML.AppendDataProcessing(mzml.DataProcessing{
		ID:             progName,
		ProcessingMeth: methods,
	})
}

func (par params) info(format string, v ...any) {
	if par.verbosity != infoSilent {
		log.Printf(format, v...)
	}
}

func (par params) timing(what string, t time.Time) {
	if par.verbosity == infoVerbose {
		log.Printf("%s: %s", what, time.Since(t))
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := newRootCmd().Execute(); err != nil {
		log.Print(err)
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Type %s --help for usage\n", filepath.Base(os.Args[0]))
			os.Exit(2)
		}
		os.Exit(1)
	}
}
