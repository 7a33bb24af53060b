// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/524D/mzshift/internal/mzml"
)

var errOutputName = errors.New("not able to determine output file name from arguments")

// resolveOutput determines the output file name. Exactly one of
// --inPlace, --suffix and --ofname must be given, with a non-empty value.
func resolveOutput(par params) (string, error) {
	modes := 0
	for _, set := range []bool{par.inPlace, par.suffixSet, par.ofnameSet} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return "", fmt.Errorf("%w: %w: use exactly one of --inPlace, --suffix or --ofname",
			errUsage, errOutputName)
	}

	switch {
	case par.inPlace:
		return par.mzMLFilename, nil
	case par.suffix != "":
		base, ext := splitExt(par.mzMLFilename)
		return base + "_" + par.suffix + ext, nil
	case par.ofname != "":
		return par.ofname, nil
	}
	return "", fmt.Errorf("%w: %w", errUsage, errOutputName)
}

// splitExt splits a path into the part before the extension and the
// extension itself. Leading dots of the file name don't start an extension,
// so ".mzML" has no extension.
func splitExt(path string) (string, string) {
	ext := filepath.Ext(path)
	if strings.TrimLeft(filepath.Base(path), ".") == strings.TrimPrefix(ext, ".") {
		ext = ""
	}
	return path[:len(path)-len(ext)], ext
}

func readMzMLFile(filename string) (mzml.MzML, error) {
	f, err := os.Open(filename)
	if err != nil {
		return mzml.MzML{}, err
	}
	defer f.Close()

	mzML, err := mzml.Read(bufio.NewReader(f))
	if err != nil {
		return mzML, fmt.Errorf("mzml.Read %s: %w", filename, err)
	}
	return mzML, nil
}

// writeMzMLFile writes to a temporary file in the destination directory,
// and renames it to filename when complete. When filename already exists,
// its permissions are kept.
func writeMzMLFile(mzML *mzml.MzML, filename string) (err error) {
	mode := fs.FileMode(0o644)
	if fi, statErr := os.Stat(filename); statErr == nil {
		mode = fi.Mode().Perm()
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmpFile.Close()
			os.Remove(tmpFile.Name())
		}
	}()

	w := bufio.NewWriter(tmpFile)
	if err = mzML.Write(w); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	if err = tmpFile.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpFile.Name(), mode); err != nil {
		return err
	}
	return os.Rename(tmpFile.Name(), filename)
}
