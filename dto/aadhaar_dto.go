package dto

import (
	"encoding/xml"
	"strings"
)

// AadhaarQRData represents the XML structure in the Aadhaar QR code
// printed on UIDAI letters and e-Aadhaar cards.
type AadhaarQRData struct {
	XMLName     xml.Name `xml:"PrintLetterBarcodeData"`
	UID         string   `xml:"uid,attr"`
	Name        string   `xml:"name,attr"`
	Gender      string   `xml:"gender,attr"`
	YearOfBirth string   `xml:"yob,attr"`
	DateOfBirth string   `xml:"dob,attr"`
}

// GetDOB returns the date of birth, falling back to the year of birth
func (q *AadhaarQRData) GetDOB() string {
	if q.DateOfBirth != "" {
		return q.DateOfBirth
	}
	return q.YearOfBirth
}

// Text renders the QR payload as labelled lines so it can be fed through the same
// field extraction as OCR output.
func (q *AadhaarQRData) Text() string {
	var lines []string
	if q.Name != "" {
		lines = append(lines, "Name: "+q.Name)
	}
	if dob := q.GetDOB(); dob != "" {
		lines = append(lines, "DOB: "+dob)
	}
	if q.UID != "" {
		lines = append(lines, q.UID)
	}
	return strings.Join(lines, "\n")
}
