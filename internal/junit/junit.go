// Package junit renders run results in the JUnit XML format understood by most CI systems.
package junit

import "encoding/xml"

// Property is a key/value pair attached to a test suite.
type Property struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Failure describes why a test case failed.
type Failure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr,omitempty"`
	Text    string `xml:",chardata"`
}

// TestCase is the result of one device.
type TestCase struct {
	Name      string   `xml:"name,attr"`
	ClassName string   `xml:"classname,attr,omitempty"`
	Time      string   `xml:"time,attr"`
	Status    string   `xml:"status,attr,omitempty"`
	Failure   *Failure `xml:"failure,omitempty"`
}

type TestSuite struct {
	Name       string     `xml:"name,attr"`
	Tests      int        `xml:"tests,attr"`
	Failures   int        `xml:"failures,attr"`
	Time       string     `xml:"time,attr"`
	Timestamp  string     `xml:"timestamp,attr,omitempty"`
	Properties []Property `xml:"properties>property,omitempty"`
	TestCases  []TestCase `xml:"testcase"`
}

type TestSuites struct {
	XMLName    xml.Name    `xml:"testsuites"`
	Tests      int         `xml:"tests,attr"`
	Failures   int         `xml:"failures,attr"`
	Time       string      `xml:"time,attr"`
	TestSuites []TestSuite `xml:"testsuite"`
}

// Parse parses an xml-encoded JUnit report.
func Parse(data []byte) (TestSuites, error) {
	var tss TestSuites
	err := xml.Unmarshal(data, &tss)
	return tss, err
}
