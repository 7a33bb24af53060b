package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"
)

// testSpectrum describes one spectrum of a generated mzML document
type testSpectrum struct {
	mz          []float64
	intens      []float64
	bits64      bool
	zlib        bool
	numpress    bool
	paramGroups bool    // Array types from referenceableParamGroups, always 64-bit uncompressed
	annotated   bool    // Add userParams and references that are passed through unchanged
	precursorMz float64 // 0: MS1 spectrum without precursor
}

func encodeTestArray(t testing.TB, v []float64, bits64, compress bool) string {
	t.Helper()
	var raw []byte
	for _, x := range v {
		if bits64 {
			raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(x))
		} else {
			raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(float32(x)))
		}
	}
	if compress {
		var b bytes.Buffer
		z := zlib.NewWriter(&b)
		if _, err := z.Write(raw); err != nil {
			t.Fatalf("zlib write: %v", err)
		}
		if err := z.Close(); err != nil {
			t.Fatalf("zlib close: %v", err)
		}
		raw = b.Bytes()
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func testArrayXML(t testing.TB, v []float64, s testSpectrum, arrayCV string, groupID string) string {
	t.Helper()
	if s.paramGroups {
		b64 := encodeTestArray(t, v, true, false)
		return fmt.Sprintf(`
          <binaryDataArray encodedLength="%d">
            <referenceableParamGroupRef ref="%s"/>
            <binary>%s</binary>
          </binaryDataArray>`, len(b64), groupID, b64)
	}
	b64 := encodeTestArray(t, v, s.bits64, s.zlib)
	floatCV := `<cvParam cvRef="MS" accession="MS:1000521" name="32-bit float" value=""/>`
	if s.bits64 {
		floatCV = `<cvParam cvRef="MS" accession="MS:1000523" name="64-bit float" value=""/>`
	}
	compCV := `<cvParam cvRef="MS" accession="MS:1000576" name="no compression" value=""/>`
	if s.zlib {
		compCV = `<cvParam cvRef="MS" accession="MS:1000574" name="zlib compression" value=""/>`
	}
	if s.numpress {
		compCV = `<cvParam cvRef="MS" accession="MS:1002312" name="MS-Numpress linear prediction compression" value=""/>`
	}
	return fmt.Sprintf(`
          <binaryDataArray encodedLength="%d">
            %s
            %s
            %s
            <binary>%s</binary>
          </binaryDataArray>`, len(b64), floatCV, compCV, arrayCV, b64)
}

// testMzMLDoc generates an mzML document holding the given spectra.
// If indexed is set, the document is wrapped in indexedmzML.
func testMzMLDoc(t testing.TB, indexed bool, specs ...testSpectrum) []byte {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	if indexed {
		sb.WriteString(`<indexedmzML xmlns="http://psi.hupo.org/ms/mzml" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` + "\n")
	}
	sb.WriteString(`<mzML xmlns="http://psi.hupo.org/ms/mzml" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" version="1.1.0" id="test">
  <cvList count="2">
    <cv id="MS" fullName="Proteomics Standards Initiative Mass Spectrometry Ontology" URI="https://raw.githubusercontent.com/HUPO-PSI/psi-ms-CV/master/psi-ms.obo"/>
    <cv id="UO" fullName="Unit Ontology" URI="https://raw.githubusercontent.com/bio-ontology-research-group/unit-ontology/master/unit.obo"/>
  </cvList>
  <fileDescription>
    <fileContent>
      <cvParam cvRef="MS" accession="MS:1000579" name="MS1 spectrum" value=""/>
    </fileContent>
  </fileDescription>
  <referenceableParamGroupList count="3">
    <referenceableParamGroup id="mzArray64">
      <cvParam cvRef="MS" accession="MS:1000523" name="64-bit float" value=""/>
      <cvParam cvRef="MS" accession="MS:1000576" name="no compression" value=""/>
      <cvParam cvRef="MS" accession="MS:1000514" name="m/z array" value="" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>
    </referenceableParamGroup>
    <referenceableParamGroup id="intensArray64">
      <cvParam cvRef="MS" accession="MS:1000523" name="64-bit float" value=""/>
      <cvParam cvRef="MS" accession="MS:1000576" name="no compression" value=""/>
      <cvParam cvRef="MS" accession="MS:1000515" name="intensity array" value="" unitCvRef="MS" unitAccession="MS:1000131" unitName="number of detector counts"/>
    </referenceableParamGroup>
    <referenceableParamGroup id="scanPars">
      <cvParam cvRef="MS" accession="MS:1000512" name="filter string" value="FTMS + p NSI Full ms"/>
      <userParam name="groupNote" value="kept"/>
    </referenceableParamGroup>
  </referenceableParamGroupList>
  <softwareList count="1">
    <software id="pwiz" version="3.0.20">
      <cvParam cvRef="MS" accession="MS:1000615" name="ProteoWizard software" value=""/>
    </software>
  </softwareList>
  <instrumentConfigurationList count="1">
    <instrumentConfiguration id="IC1">
      <cvParam cvRef="MS" accession="MS:1001742" name="LTQ Orbitrap Velos" value=""/>
    </instrumentConfiguration>
  </instrumentConfigurationList>
  <dataProcessingList count="1">
    <dataProcessing id="pwiz_Reader_conversion">
      <processingMethod order="0" softwareRef="pwiz">
        <cvParam cvRef="MS" accession="MS:1000544" name="Conversion to mzML" value=""/>
      </processingMethod>
    </dataProcessing>
  </dataProcessingList>
  <run id="run1" defaultInstrumentConfigurationRef="IC1">
`)
	fmt.Fprintf(&sb, `    <spectrumList count="%d" defaultDataProcessingRef="pwiz_Reader_conversion">`, len(specs))
	for i, s := range specs {
		msLevel := 1
		if s.precursorMz != 0 {
			msLevel = 2
		}
		fmt.Fprintf(&sb, `
      <spectrum index="%d" id="scan=%d" defaultArrayLength="%d">
        <cvParam cvRef="MS" accession="MS:1000511" name="ms level" value="%d"/>`, i, i+1, len(s.mz), msLevel)
		if len(s.mz) > 0 {
			basePeak := 0
			lowest, highest := s.mz[0], s.mz[0]
			for j := range s.mz {
				if s.intens[j] > s.intens[basePeak] {
					basePeak = j
				}
				lowest = min(lowest, s.mz[j])
				highest = max(highest, s.mz[j])
			}
			fmt.Fprintf(&sb, `
        <cvParam cvRef="MS" accession="MS:1000504" name="base peak m/z" value="%g" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>
        <cvParam cvRef="MS" accession="MS:1000528" name="lowest observed m/z" value="%g" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>
        <cvParam cvRef="MS" accession="MS:1000527" name="highest observed m/z" value="%g" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>`,
				s.mz[basePeak], lowest, highest)
		}
		scanListUP, scanRef := "", ""
		if s.annotated {
			scanListUP = `
          <userParam name="scanListNote" value="kept"/>`
			scanRef = `
            <referenceableParamGroupRef ref="scanPars"/>`
		}
		fmt.Fprintf(&sb, `
        <scanList count="1">
          <cvParam cvRef="MS" accession="MS:1000795" name="no combination" value=""/>%s
          <scan>%s
            <cvParam cvRef="MS" accession="MS:1000016" name="scan start time" value="%g" unitCvRef="UO" unitAccession="UO:0000031" unitName="minute"/>
            <scanWindowList count="1">
              <scanWindow>
                <cvParam cvRef="MS" accession="MS:1000501" name="scan window lower limit" value="50" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>
                <cvParam cvRef="MS" accession="MS:1000500" name="scan window upper limit" value="2000" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>
              </scanWindow>
            </scanWindowList>
          </scan>
        </scanList>`, scanListUP, scanRef, 0.5*float64(i+1))
		if s.precursorMz != 0 {
			precursorAttr, windowUP, ionUP, activationUP := "", "", "", ""
			if s.annotated {
				precursorAttr = ` externalSpectrumID="ext1" sourceFileRef="SF1"`
				windowUP = `
              <userParam name="windowNote" value="kept"/>`
				ionUP = `
                <userParam name="selectedIonNote" value="kept"/>`
				activationUP = `
              <userParam name="activationNote" value="kept"/>`
			}
			fmt.Fprintf(&sb, `
        <precursorList count="1">
          <precursor spectrumRef="scan=1"%[2]s>
            <isolationWindow>
              <cvParam cvRef="MS" accession="MS:1000827" name="isolation window target m/z" value="%[1]g" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>%[3]s
            </isolationWindow>
            <selectedIonList count="1">
              <selectedIon>
                <cvParam cvRef="MS" accession="MS:1000744" name="selected ion m/z" value="%[1]g" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>
                <cvParam cvRef="MS" accession="MS:1000041" name="charge state" value="2"/>%[4]s
              </selectedIon>
            </selectedIonList>
            <activation>
              <cvParam cvRef="MS" accession="MS:1000133" name="collision-induced dissociation" value=""/>%[5]s
            </activation>
          </precursor>
        </precursorList>`, s.precursorMz, precursorAttr, windowUP, ionUP, activationUP)
		}
		sb.WriteString(`
        <binaryDataArrayList count="2">`)
		sb.WriteString(testArrayXML(t, s.mz, s,
			`<cvParam cvRef="MS" accession="MS:1000514" name="m/z array" value="" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>`,
			"mzArray64"))
		sb.WriteString(testArrayXML(t, s.intens, s,
			`<cvParam cvRef="MS" accession="MS:1000515" name="intensity array" value="" unitCvRef="MS" unitAccession="MS:1000131" unitName="number of detector counts"/>`,
			"intensArray64"))
		sb.WriteString(`
        </binaryDataArrayList>
      </spectrum>`)
	}
	sb.WriteString(`
    </spectrumList>
  </run>
</mzML>
`)
	if indexed {
		sb.WriteString(`<indexListOffset>0</indexListOffset>
</indexedmzML>
`)
	}
	return []byte(sb.String())
}

func readTestMzML(t testing.TB, doc []byte) MzML {
	t.Helper()
	f, err := Read(bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("Read: error return %v", err)
	}
	return f
}

func mustParseFloat(t testing.TB, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("ParseFloat(%q): %v", s, err)
	}
	return v
}
