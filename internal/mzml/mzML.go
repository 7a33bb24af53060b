package mzml

import (
	"encoding/xml"
	"errors"
)

// MzML wraps the contents of the mzML file
type MzML struct {
	content     mzMLContent
	index2id    []string
	id2Index    map[string]int
	paramGroups map[string][]CVParam
}

// Peak contains the actual ms peak info
type Peak struct {
	Mz     float64
	Intens float64
}

// Ranges holds the m/z and intensity bounds over all peaks of all spectra
type Ranges struct {
	MinMz     float64
	MaxMz     float64
	MinIntens float64
	MaxIntens float64
	Peaks     int
}

// The mzML content that we read. Not all fields are parsed,
// but we need to store them in order to write the result mzML.
type mzMLContent struct {
	XMLName         xml.Name `xml:"http://psi.hupo.org/ms/mzml mzML"`
	ID              string   `xml:"id,attr,omitempty"`
	CvList          cvList   `xml:"cvList"`
	FileDescription struct {
		FileDescriptionXML string `xml:",innerxml"`
	} `xml:"fileDescription"`
	ReferenceableParamGroupList *referenceableParamGroupList `xml:"referenceableParamGroupList"`
	SampleList                  *rawList                     `xml:"sampleList"`
	SoftwareList                *softwareList                `xml:"softwareList"`
	ScanSettingsList            *rawList                     `xml:"scanSettingsList"`
	InstrumentConfigurationList *instrumentConfigurationList `xml:"instrumentConfigurationList"`
	DataProcessingList          *dataProcessingList          `xml:"dataProcessingList"`
	Run                         run                          `xml:"run"`
}

// We define a separate struct for writing XML because it is not possible
// to write namespace info otherwise
type mzMLContentWrite struct {
	XMLName         xml.Name `xml:"http://psi.hupo.org/ms/mzml mzML"`
	Sl1             string   `xml:"xsi:schemaLocation,attr"`
	ID              string   `xml:"id,attr,omitempty"`
	Version         string   `xml:"version,attr"`
	Sl2             string   `xml:"xmlns:xsi,attr"`
	CvList          cvList   `xml:"cvList"`
	FileDescription struct {
		FileDescriptionXML string `xml:",innerxml"`
	} `xml:"fileDescription"`
	ReferenceableParamGroupList *referenceableParamGroupList `xml:"referenceableParamGroupList,omitempty"`
	SampleList                  *rawList                     `xml:"sampleList,omitempty"`
	SoftwareList                *softwareList                `xml:"softwareList"`
	ScanSettingsList            *rawList                     `xml:"scanSettingsList,omitempty"`
	InstrumentConfigurationList *instrumentConfigurationList `xml:"instrumentConfigurationList"`
	DataProcessingList          *dataProcessingList          `xml:"dataProcessingList"`
	Run                         run                          `xml:"run"`
}

type cvList struct {
	Count     int    `xml:"count,attr,omitempty"`
	CvListXML []byte `xml:",innerxml"`
}

// rawList keeps a list tag that we never interpret, only pass through
type rawList struct {
	Count   int    `xml:"count,attr,omitempty"`
	ListXML []byte `xml:",innerxml"`
}

type referenceableParamGroupList struct {
	Count      int                       `xml:"count,attr,omitempty"`
	ParamGroup []referenceableParamGroup `xml:"referenceableParamGroup"`
}

type referenceableParamGroup struct {
	ID      string      `xml:"id,attr"`
	CvPar   []CVParam   `xml:"cvParam,omitempty"`
	UserPar []UserParam `xml:"userParam,omitempty"`
}

type softwareList struct {
	Count    int        `xml:"count,attr,omitempty"`
	Software []software `xml:"software"`
}

type software struct {
	ID      string      `xml:"id,attr,omitempty"`
	Version string      `xml:"version,attr,omitempty"`
	CvPar   []CVParam   `xml:"cvParam,omitempty"`
	UserPar []UserParam `xml:"userParam,omitempty"`
}

type instrumentConfigurationList struct {
	Count                          int    `xml:"count,attr,omitempty"`
	InstrumentConfigurationListXML []byte `xml:",innerxml"`
}

type dataProcessingList struct {
	Count           int              `xml:"count,attr,omitempty"`
	DataProcessingd []DataProcessing `xml:"dataProcessing,omitempty"`
}

// DataProcessing contains info for the correspondingly named
// tag in mzML
type DataProcessing struct {
	ID             string             `xml:"id,attr,omitempty"`
	ProcessingMeth []ProcessingMethod `xml:"processingMethod"`
}

// ProcessingMethod contains info for the correspondingly named
// tag in mzML
type ProcessingMethod struct {
	Count       int         `xml:"order,attr"`
	SoftwareRef string      `xml:"softwareRef,attr,omitempty"`
	CvPar       []CVParam   `xml:"cvParam,omitempty"`
	UserPar     []UserParam `xml:"userParam,omitempty"`
}

type run struct {
	ID                                string            `xml:"id,attr,omitempty"`
	DefaultInstrumentConfigurationRef string            `xml:"defaultInstrumentConfigurationRef,attr,omitempty"`
	StartTimeStamp                    string            `xml:"startTimeStamp,attr,omitempty"`
	DefaultSourceFileRef              string            `xml:"defaultSourceFileRef,attr,omitempty"`
	SampleRef                         string            `xml:"sampleRef,attr,omitempty"`
	SpectrumList                      spectrumList      `xml:"spectrumList,omitempty"`
	ChromatogramList                  *chromatogramList `xml:"chromatogramList,omitempty"`
}

type spectrumList struct {
	Count                    int        `xml:"count,attr,omitempty"`
	DefaultDataProcessingRef string     `xml:"defaultDataProcessingRef,attr,omitempty"`
	Spectrum                 []spectrum `xml:"spectrum,omitempty"`
}

type chromatogramList struct {
	Count                    int    `xml:"count,attr,omitempty"`
	DefaultDataProcessingRef string `xml:"defaultDataProcessingRef,attr,omitempty"`
	ChromatogramListXML      []byte `xml:",innerxml"`
}

type spectrum struct {
	Index              int                          `xml:"index,attr"`
	ID                 string                       `xml:"id,attr"`
	SpotID             string                       `xml:"spotID,attr,omitempty"`
	DataProcessingRef  string                       `xml:"dataProcessingRef,attr,omitempty"`
	SourceFileRef      string                       `xml:"sourceFileRef,attr,omitempty"`
	DefaultArrayLength int64                        `xml:"defaultArrayLength,attr"`
	ParamGroupRef      []referenceableParamGroupRef `xml:"referenceableParamGroupRef,omitempty"`
	CvPar              []CVParam                    `xml:"cvParam,omitempty"`
	UserPar            []UserParam                  `xml:"userParam,omitempty"`
	ScanList           scanList                     `xml:"scanList"`
	// precursorList is a slice, only the current version of
	// the encoding/xml package does not handle "omitempty" properly on
	// structures, and we don't want precursorList tags to appear in
	// e.g. ms1 spectra
	PrecursorList       []precursorList     `xml:"precursorList,omitempty"`
	ProductList         []rawList           `xml:"productList,omitempty"`
	BinaryDataArrayList binaryDataArrayList `xml:"binaryDataArrayList"`
}

type referenceableParamGroupRef struct {
	Ref string `xml:"ref,attr"`
}

type binaryDataArrayList struct {
	Count           int               `xml:"count,attr,omitempty"`
	BinaryDataArray []binaryDataArray `xml:"binaryDataArray"`
}

type binaryDataArray struct {
	EncodedLength     int                          `xml:"encodedLength,attr,omitempty"`
	ArrayLength       int                          `xml:"arrayLength,attr,omitempty"`
	DataProcessingRef string                       `xml:"dataProcessingRef,attr,omitempty"`
	ParamGroupRef     []referenceableParamGroupRef `xml:"referenceableParamGroupRef,omitempty"`
	CvPar             []CVParam                    `xml:"cvParam,omitempty"`
	UserPar           []UserParam                  `xml:"userParam,omitempty"`
	Binary            string                       `xml:"binary"`
}

type scanList struct {
	Count         int                          `xml:"count,attr,omitempty"`
	ParamGroupRef []referenceableParamGroupRef `xml:"referenceableParamGroupRef,omitempty"`
	CvPar         []CVParam                    `xml:"cvParam,omitempty"`
	UserPar       []UserParam                  `xml:"userParam,omitempty"`
	Scan          []scan                       `xml:"scan"`
}

type scan struct {
	SpectrumRef        string                       `xml:"spectrumRef,attr,omitempty"`
	ExternalSpectrumID string                       `xml:"externalSpectrumID,attr,omitempty"`
	SourceFileRef      string                       `xml:"sourceFileRef,attr,omitempty"`
	InstrConfRef       string                       `xml:"instrumentConfigurationRef,attr,omitempty"`
	ParamGroupRef      []referenceableParamGroupRef `xml:"referenceableParamGroupRef,omitempty"`
	CvPar              []CVParam                    `xml:"cvParam,omitempty"`
	UserPar            []UserParam                  `xml:"userParam,omitempty"`
	ScanWindowList     *scanWindowList              `xml:"scanWindowList,omitempty"`
}

// UserParam contains a non-CV parameter
type UserParam struct {
	Name  string `xml:"name,attr,omitempty"`
	Value string `xml:"value,attr,omitempty"`
	Type  string `xml:"type,attr,omitempty"`
}

type precursorList struct {
	Count     int            `xml:"count,attr,omitempty"`
	Precursor []XMLprecursor `xml:"precursor"`
}

// XMLprecursor contains info for the correspondingly named tag in the mzML file
type XMLprecursor struct {
	SpectrumRef        string          `xml:"spectrumRef,attr,omitempty"`
	ExternalSpectrumID string          `xml:"externalSpectrumID,attr,omitempty"`
	SourceFileRef      string          `xml:"sourceFileRef,attr,omitempty"`
	IsolationWindow    isolationWindow `xml:"isolationWindow,omitempty"`
	SelectedIonList    selectedIonList `xml:"selectedIonList"`
	Activation         activation      `xml:"activation"`
}

// paramGroup holds the parameters that any mzML ParamGroup element may have
type paramGroup struct {
	ParamGroupRef []referenceableParamGroupRef `xml:"referenceableParamGroupRef,omitempty"`
	CvPar         []CVParam                    `xml:"cvParam,omitempty"`
	UserPar       []UserParam                  `xml:"userParam,omitempty"`
}

type isolationWindow struct {
	paramGroup
}

type selectedIonList struct {
	Count       int           `xml:"count,attr,omitempty"`
	SelectedIon []selectedIon `xml:"selectedIon"`
}

type selectedIon struct {
	paramGroup
}

type activation struct {
	paramGroup
}

type scanWindowList struct {
	Count          int    `xml:"count,attr,omitempty"`
	ScanWindowList string `xml:",innerxml"`
}

// CVParam contains values and attributes of a mzML Controlled Vocabulary term
// (http://www.peptideatlas.org/tmp/mzML1.1.0.html)
type CVParam struct {
	CvRef         string `xml:"cvRef,attr,omitempty"`
	Accession     string `xml:"accession,attr,omitempty"`
	Name          string `xml:"name,attr,omitempty"`
	Value         string `xml:"value,attr,omitempty"`
	UnitCvRef     string `xml:"unitCvRef,attr,omitempty"`
	UnitAccession string `xml:"unitAccession,attr,omitempty"`
	UnitName      string `xml:"unitName,attr,omitempty"`
}

var (
	// ErrInvalidScanID means an invalid scan id is supplied
	ErrInvalidScanID = errors.New("MzML: invalid scan id")
	// ErrInvalidScanIndex means an invalid scan index is supplied
	ErrInvalidScanIndex = errors.New("MzML: invalid scan index")
	// ErrUnknownUnit means the file contains a unit that the software cannot handle
	ErrUnknownUnit = errors.New("MzML: can't handle unit")
	// ErrUnsupportedCompression means a binary array uses MS-Numpress
	ErrUnsupportedCompression = errors.New("MzML: compression type not supported")
	// ErrArrayLength means a binary array does not match the spectrum length
	ErrArrayLength = errors.New("MzML: binary array length mismatch")
	// ErrMissingMzArray means a spectrum with peaks has no m/z array
	ErrMissingMzArray = errors.New("MzML: no m/z array")
	// ErrUnknownParamGroup means a referenceableParamGroupRef has no matching group
	ErrUnknownParamGroup = errors.New("MzML: unknown referenceableParamGroup")
)
