package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
)

func (f *MzML) Write(writer io.Writer) error {
	_, err := io.WriteString(writer, `<?xml version="1.0" encoding="utf-8"?>
`)
	if err != nil {
		return err
	}
	enc := xml.NewEncoder(writer)
	// FIXME: We want readable XML, with XML tags starting on a new line.
	// GO's Encode doesn't always insert newlines, and using
	// Indent only works if the indent string is not empty,
	// resuling in a single space indent.
	enc.Indent(` `, `  `)
	var content mzMLContentWrite

	content.XMLName = f.content.XMLName
	content.Sl1 = "http://psi.hupo.org/ms/mzml http://psidev.info/files/ms/mzML/xsd/mzML1.1.0.xsd"
	content.ID = f.content.ID
	content.Version = "1.1.0"
	content.Sl2 = "http://www.w3.org/2001/XMLSchema-instance"
	content.CvList = f.content.CvList
	content.FileDescription = f.content.FileDescription
	content.ReferenceableParamGroupList = f.content.ReferenceableParamGroupList
	content.SampleList = f.content.SampleList
	content.SoftwareList = f.content.SoftwareList
	content.ScanSettingsList = f.content.ScanSettingsList
	content.InstrumentConfigurationList = f.content.InstrumentConfigurationList
	content.DataProcessingList = f.content.DataProcessingList
	content.Run = f.content.Run

	if err := enc.Encode(&content); err != nil {
		return err
	}
	_, err = io.WriteString(writer, "\n")
	return err
}

// AppendSoftwareInfo adds info to the SoftwareList tag of the mzML file.
// It returns the id under which the software is listed, which is id
// itself unless that is already used for a different version.
func (f *MzML) AppendSoftwareInfo(id string, version string, cv ...CVParam) string {
	if f.content.SoftwareList == nil {
		f.content.SoftwareList = &softwareList{}
	}
	swID := id
	for n := 2; ; n++ {
		found := false
		for _, sw := range f.content.SoftwareList.Software {
			if sw.ID == swID {
				if sw.Version == version {
					return swID
				}
				found = true
			}
		}
		if !found {
			break
		}
		swID = fmt.Sprintf("%s_%d", id, n)
	}

	sw := software{ID: swID, Version: version, CvPar: cv}
	f.content.SoftwareList.Software = append(f.content.SoftwareList.Software, sw)
	f.content.SoftwareList.Count = len(f.content.SoftwareList.Software)
	return swID
}

// AppendDataProcessing adds info to the DataProcessing tag of the mzML file.
// The ID of proc is made unique if needed, the ID used is returned.
func (f *MzML) AppendDataProcessing(proc DataProcessing) string {
	if f.content.DataProcessingList == nil {
		f.content.DataProcessingList = &dataProcessingList{}
	}
	id := proc.ID
	for n := 2; f.hasDataProcessing(id); n++ {
		id = fmt.Sprintf("%s_%d", proc.ID, n)
	}
	proc.ID = id
	f.content.DataProcessingList.DataProcessingd = append(f.content.DataProcessingList.DataProcessingd, proc)
	f.content.DataProcessingList.Count = len(f.content.DataProcessingList.DataProcessingd)
	return id
}

func (f *MzML) hasDataProcessing(id string) bool {
	for _, dp := range f.content.DataProcessingList.DataProcessingd {
		if dp.ID == id {
			return true
		}
	}
	return false
}

// UpdateScan sets the mz/intensity info of a scan.
// Arrays that are not updated keep their encoded data untouched.
// When the m/z values are updated, the cached m/z summary terms of the
// spectrum are recomputed from p.
func (f *MzML) UpdateScan(scanIndex int, p []Peak,
	updateMz bool, updateIntens bool) error {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return ErrInvalidScanIndex
	}
	spec := &f.content.Run.SpectrumList.Spectrum[scanIndex]
	arrays := spec.BinaryDataArrayList.BinaryDataArray
	pars := make([]arrayPars, len(arrays))
	var mzPars *arrayPars
	for i := range arrays {
		var err error
		pars[i], err = f.binaryDataPars(&arrays[i])
		if err != nil {
			return err
		}
		if pars[i].mzArray {
			mzPars = &pars[i]
		}
	}
	// Check before anything is modified
	if updateMz && len(p) > 0 && mzPars == nil {
		return fmt.Errorf("spectrum %s: %w", spec.ID, ErrMissingMzArray)
	}

	spec.DefaultArrayLength = int64(len(p))
	for i := range arrays {
		b := &arrays[i]
		// We are only interested in mz and intensity
		if (pars[i].mzArray && updateMz) || (pars[i].intensityArray && updateIntens) {
			b64, err := encodeBinary(p, pars[i])
			if err != nil {
				return err
			}
			b.Binary = b64
			b.ArrayLength = len(p)
			b.EncodedLength = len(b64)
		}
	}
	if updateMz && mzPars != nil {
		refreshSpectrumSummary(spec, p, mzPars.bits64)
	}
	return nil
}

func encodeBinary(p []Peak, pars arrayPars) (string, error) {
	var rawUncompressed []byte

	// Some code duplication below in order to optimize loops
	if pars.bits64 {
		rawUncompressed = make([]byte, len(p)*8)
		if pars.mzArray {
			for i, peak := range p {
				binary.LittleEndian.PutUint64(rawUncompressed[(8*i):], math.Float64bits(peak.Mz))
			}
		} else {
			for i, peak := range p {
				binary.LittleEndian.PutUint64(rawUncompressed[(8*i):], math.Float64bits(peak.Intens))
			}
		}
	} else {
		rawUncompressed = make([]byte, len(p)*4)
		if pars.mzArray {
			for i, peak := range p {
				binary.LittleEndian.PutUint32(rawUncompressed[(4*i):], math.Float32bits(float32(peak.Mz)))
			}
		} else {
			for i, peak := range p {
				binary.LittleEndian.PutUint32(rawUncompressed[(4*i):], math.Float32bits(float32(peak.Intens)))
			}
		}
	}
	data := rawUncompressed
	if pars.zlib {
		var b bytes.Buffer
		z := zlib.NewWriter(&b)
		if _, err := z.Write(rawUncompressed); err != nil {
			return "", err
		}
		// zlib writer must explicitly be closed here, otherwise result is invalid
		if err := z.Close(); err != nil {
			return "", err
		}
		data = b.Bytes()
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
