package acgi

import (
	"encoding/xml"
	"fmt"
)

// Request documents are fixed-shape XML bodies embedding the integrator
// credentials and one identifier. The service libraries disagree on naming
// conventions (camelCase vs hyphenated), so each request keeps the exact tags
// its endpoint expects.

type custInfoRequest struct {
	XMLName            xml.Name        `xml:"custInfoRequest"`
	CustID             string          `xml:"custId"`
	IntegratorUsername string          `xml:"integratorUsername"`
	IntegratorPassword string          `xml:"integratorPassword"`
	DirectoryID        string          `xml:"directoryId"`
	BulkRequest        bool            `xml:"bulkRequest"`
	Details            custInfoDetails `xml:"details"`
}

type custInfoDetails struct {
	IncludeCodeValues bool        `xml:"includeCodeValues,attr"`
	Roles             includeFlag `xml:"roles"`
	Addresses         includeFlag `xml:"addresses"`
	Phones            includeFlag `xml:"phones"`
	Emails            includeFlag `xml:"emails"`
	Jobs              includeFlag `xml:"jobs"`
	Memberships       includeFlag `xml:"memberships"`
	CustomerAttrs     includeFlag `xml:"customerAttributes"`
}

type includeFlag struct {
	Include         bool `xml:"include,attr"`
	IncludeBad      bool `xml:"includeBad,attr,omitempty"`
	IncludeInactive bool `xml:"includeInactive,attr,omitempty"`
	IncludeAll      bool `xml:"includeAll,attr,omitempty"`
}

func newCustInfoRequest(creds Credentials, customerID string) custInfoRequest {
	return custInfoRequest{
		CustID:             customerID,
		IntegratorUsername: creds.UserID,
		IntegratorPassword: creds.Password,
		Details: custInfoDetails{
			IncludeCodeValues: true,
			Roles:             includeFlag{Include: true},
			Addresses:         includeFlag{Include: true, IncludeBad: true},
			Phones:            includeFlag{Include: true},
			Emails:            includeFlag{Include: true, IncludeBad: true},
			Jobs:              includeFlag{Include: true, IncludeInactive: true},
			Memberships:       includeFlag{Include: true, IncludeInactive: true},
			CustomerAttrs:     includeFlag{Include: true, IncludeAll: true},
		},
	}
}

type memberRequest struct {
	XMLName        xml.Name `xml:"member-request"`
	VendorID       string   `xml:"vendor-id"`
	VendorPassword string   `xml:"vendor-password"`
	CustID         string   `xml:"cust-id"`
}

type ecordRequest struct {
	XMLName        xml.Name `xml:"ecord-request"`
	VendorID       string   `xml:"vendorId"`
	VendorPassword string   `xml:"vendorPassword"`
	CustID         string   `xml:"custId"`
	OrderSerno     string   `xml:"orderSerno"`
	ProductType    string   `xml:"productType"`
}

type eventRequest struct {
	XMLName        xml.Name `xml:"event-request"`
	VendorID       string   `xml:"vendor-id"`
	VendorPassword string   `xml:"vendor-password"`
	EventID        string   `xml:"event-id"`
}

type registrationRequest struct {
	XMLName        xml.Name `xml:"registration-request"`
	VendorID       string   `xml:"vendor-id"`
	VendorPassword string   `xml:"vendor-password"`
	CustID         string   `xml:"cust-id"`
}

type custQueueRequest struct {
	XMLName        xml.Name `xml:"custRequest"`
	VendorID       string   `xml:"vendorId"`
	VendorPassword string   `xml:"vendorPassword"`
}

type purgeRequest struct {
	XMLName        xml.Name `xml:"purgeRequest"`
	VendorID       string   `xml:"vendorId"`
	VendorPassword string   `xml:"vendorPassword"`
	Customers      struct {
		Customer []string `xml:"customer"`
	} `xml:"customers"`
}

// marshalRequest renders a request document with the XML declaration the
// service expects.
func marshalRequest(doc interface{}) (string, error) {
	body, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to build request document: %w", err)
	}
	return xml.Header + string(body), nil
}
