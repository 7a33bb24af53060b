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
	"strconv"

	"golang.org/x/net/html/charset"
)

// CV terms used to interpret binary data arrays
//
// Compression
// MS:1000574 zlib compression
// MS:1000576 No Compression
// MS:1002312 MS-Numpress linear prediction compression
// MS:1002313 MS-Numpress positive integer compression
// MS:1002314 MS-Numpress short logged float compression
// MS:1002746 MS-Numpress linear prediction compression followed by zlib compression
// MS:1002747 MS-Numpress positive integer compression followed by zlib compression
// MS:1002748 MS-Numpress short logged float compression followed by zlib compression
//
// Array types
// MS:1000514 m/z array
// MS:1000515 intensity array
//
// Binary data types
// MS:1000521 32-bit float
// MS:1000523 64-bit float
const (
	cvZlibCompression = `MS:1000574`
	cvMzArray         = `MS:1000514`
	cvIntensityArray  = `MS:1000515`
	cvFloat64         = `MS:1000523`
	cvMSLevel         = `MS:1000511`
	cvScanStartTime   = `MS:1000016`
)

// arrayPars describes how a binary data array is encoded and what it holds
type arrayPars struct {
	zlib           bool // Default: no compression
	bits64         bool // Default: 32 bits
	mzArray        bool
	intensityArray bool
}

// Read reads mzML file from an io.Reader
func Read(reader io.Reader) (MzML, error) {
	var mzML MzML

	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	// We are only interested in mzML content, so skip over indexedmzML
	// and everything else
	for {
		t, tokenErr := d.Token()
		if tokenErr != nil {
			if tokenErr == io.EOF {
				break
			}
			return mzML, tokenErr
		}
		if t, ok := t.(xml.StartElement); ok && t.Name.Local == "mzML" {
			if err := d.DecodeElement(&mzML.content, &t); err != nil {
				return mzML, err
			}
		}
	}

	mzML.indexParamGroups()
	err := mzML.traverseScan()
	return mzML, err
}

// indexParamGroups makes the cvParams of referenceableParamGroups
// accessible by group id
func (f *MzML) indexParamGroups() {
	f.paramGroups = make(map[string][]CVParam)
	if f.content.ReferenceableParamGroupList == nil {
		return
	}
	for _, g := range f.content.ReferenceableParamGroupList.ParamGroup {
		f.paramGroups[g.ID] = g.CvPar
	}
}

// cvParams returns the cvParams of an element, including those
// of the referenceableParamGroups it refers to
func (f *MzML) cvParams(refs []referenceableParamGroupRef, cvPar []CVParam) ([]CVParam, error) {
	if len(refs) == 0 {
		return cvPar, nil
	}
	var all []CVParam
	for _, ref := range refs {
		groupPar, ok := f.paramGroups[ref.Ref]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParamGroup, ref.Ref)
		}
		all = append(all, groupPar...)
	}
	return append(all, cvPar...), nil
}

func (f *MzML) binaryDataPars(b *binaryDataArray) (arrayPars, error) {
	var pars arrayPars
	cvPar, err := f.cvParams(b.ParamGroupRef, b.CvPar)
	if err != nil {
		return pars, err
	}
	for _, cvParam := range cvPar {
		switch cvParam.Accession {
		case cvZlibCompression:
			pars.zlib = true
		case cvMzArray:
			pars.mzArray = true
		case cvIntensityArray:
			pars.intensityArray = true
		case cvFloat64:
			pars.bits64 = true
		case `MS:1002312`, `MS:1002313`, `MS:1002314`,
			`MS:1002746`, `MS:1002747`, `MS:1002748`:
			return pars, ErrUnsupportedCompression
		}
	}
	return pars, nil
}

// decodeBinary returns the numbers stored in a binary data array
func decodeBinary(b *binaryDataArray, pars arrayPars) ([]float64, error) {
	data, err := base64.StdEncoding.DecodeString(b.Binary)
	if err != nil {
		return nil, err
	}
	if pars.zlib {
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer z.Close()
		data, err = io.ReadAll(z)
		if err != nil {
			return nil, err
		}
	}
	var v []float64
	if pars.bits64 {
		v = make([]float64, len(data)/8)
		for i := range v {
			v[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
	} else {
		v = make([]float64, len(data)/4)
		for i := range v {
			v[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		}
	}
	return v, nil
}

// NumSpecs returns the number of spectra
func (f *MzML) NumSpecs() int {
	return len(f.content.Run.SpectrumList.Spectrum)
}

// RetentionTime returns the retention time of a spectrum in seconds,
// or -1 if the spectrum has none
func (f *MzML) RetentionTime(scanIndex int) (float64, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0.0, ErrInvalidScanIndex
	}
	for _, scan := range f.content.Run.SpectrumList.Spectrum[scanIndex].ScanList.Scan {
		for _, cvParam := range scan.CvPar {
			if cvParam.Accession == cvScanStartTime {
				retentionTime, err := strconv.ParseFloat(cvParam.Value, 64)
				// Check if the retention time is in minutes, otherwise assume it's seconds
				if cvParam.UnitAccession == "UO:0000031" ||
					cvParam.UnitAccession == "MS:1000038" {
					retentionTime *= 60
				}
				return retentionTime, err
			}
		}
	}
	return -1.0, nil
}

// MSLevel returns the MS level of a scan
func (f *MzML) MSLevel(scanIndex int) (int, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0, ErrInvalidScanIndex
	}
	for _, cvParam := range f.content.Run.SpectrumList.Spectrum[scanIndex].CvPar {
		if cvParam.Accession == cvMSLevel {
			msLevel, err := strconv.ParseInt(cvParam.Value, 10, 64)
			return int(msLevel), err
		}
	}
	return 1, nil // If nothing else, guess it's MS1
}

// ReadScan reads a single scan
// scanIndex is the sequence number of the scan in the mzML file,
// This is not the same as the scan number that is specified
// in the mzML file! To read a scan using the mzML id,
// use ReadScan(f.ScanIndex(id))
func (f *MzML) ReadScan(scanIndex int) ([]Peak, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return nil, ErrInvalidScanIndex
	}
	spec := &f.content.Run.SpectrumList.Spectrum[scanIndex]
	p := make([]Peak, spec.DefaultArrayLength)
	haveMz := false
	for i := range spec.BinaryDataArrayList.BinaryDataArray {
		b := &spec.BinaryDataArrayList.BinaryDataArray[i]
		pars, err := f.binaryDataPars(b)
		if err != nil {
			return nil, err
		}
		// We are only interested in mz and intensity
		if !pars.mzArray && !pars.intensityArray {
			continue
		}
		v, err := decodeBinary(b, pars)
		if err != nil {
			return nil, err
		}
		if len(v) != len(p) {
			return nil, ErrArrayLength
		}
		haveMz = haveMz || pars.mzArray
		for j, x := range v {
			if pars.mzArray {
				p[j].Mz = x
			} else {
				p[j].Intens = x
			}
		}
	}
	if len(p) > 0 && !haveMz {
		return nil, fmt.Errorf("spectrum %s: %w", spec.ID, ErrMissingMzArray)
	}
	return p, nil
}

// traverseScan traverses all scans,
// and fills the arrays f.index2id and f.id2Index to make scans accessible
func (f *MzML) traverseScan() error {
	f.index2id = make([]string, f.NumSpecs())
	f.id2Index = make(map[string]int, f.NumSpecs())

	for i, spec := range f.content.Run.SpectrumList.Spectrum {
		if i != spec.Index {
			return ErrInvalidScanIndex
		}
		f.index2id[i] = spec.ID
		f.id2Index[spec.ID] = i
	}
	return nil
}

// ScanIndex converts a scan identifier (the string used in the mzML file)
// into an index that is used to access the scans
func (f *MzML) ScanIndex(scanID string) (int, error) {
	if index, ok := f.id2Index[scanID]; ok {
		return index, nil
	}
	return 0, ErrInvalidScanID
}

// ScanID converts a scan index (used to access the scan data) into a scan id
// (used in the mzML file)
func (f *MzML) ScanID(scanIndex int) (string, error) {
	if scanIndex >= 0 && scanIndex < f.NumSpecs() {
		return f.index2id[scanIndex], nil
	}
	return "", ErrInvalidScanIndex
}
