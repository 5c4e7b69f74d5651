package acgi

import (
	"encoding/xml"

	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
)

// Response parsing is a pure function from document bytes to record. The
// relevant data sits under fixed nested element paths per object type; any
// element absent from a response leaves the corresponding field empty. Only a
// non-well-formed document is an error.

type custInfoResponse struct {
	CustID  string `xml:"custId"`
	CustTyp string `xml:"custType"`
	LoginID string `xml:"loginId"`
	Name    struct {
		PrefixName   string `xml:"prefixName"`
		FirstName    string `xml:"firstName"`
		MiddleName   string `xml:"middleName"`
		LastName     string `xml:"lastName"`
		SuffixName   string `xml:"suffixName"`
		DegreeName   string `xml:"degreeName"`
		InformalName string `xml:"informalName"`
		DisplayName  string `xml:"displayName"`
	} `xml:"name"`
	Roles     []string      `xml:"roles>role"`
	Addresses []custAddress `xml:"addresses>address"`
	Phones    []custPhone   `xml:"phones>phone"`
	Emails    []custEmail   `xml:"emails>email"`
	Jobs      []custJob     `xml:"jobs>job"`
	Members   []custMember  `xml:"memberships>membership"`
}

type custAddress struct {
	AddressType string `xml:"addressType"`
	Preferred   string `xml:"preferred"`
	Street1     string `xml:"street1"`
	Street2     string `xml:"street2"`
	Street3     string `xml:"street3"`
	City        string `xml:"city"`
	State       string `xml:"state"`
	PostalCode  string `xml:"postalCode"`
	CountryCode string `xml:"countryCode"`
	BadAddress  string `xml:"badAddress"`
}

type custPhone struct {
	PhoneType string `xml:"phoneType"`
	Preferred string `xml:"preferred"`
	Number    string `xml:"number"`
	Ext       string `xml:"ext"`
}

type custEmail struct {
	EmailType  string `xml:"emailType"`
	Preferred  string `xml:"preferred"`
	Address    string `xml:"address"`
	BadAddress string `xml:"badAddress"`
}

type custJob struct {
	EmployerName string `xml:"employerName"`
	TitleName    string `xml:"titleName"`
	StartDate    string `xml:"startDate"`
	EndDate      string `xml:"endDate"`
	Preferred    string `xml:"preferred"`
}

type custMember struct {
	SubgroupID   string `xml:"subgroupId"`
	SubgroupName string `xml:"subgroupName"`
	ClassCode    string `xml:"classCode"`
	StatusCode   string `xml:"statusCode"`
	StatusDescr  string `xml:"statusDescr"`
	JoinDate     string `xml:"joinDate"`
}

func parseCustomer(data []byte) (*Customer, error) {
	var doc custInfoResponse
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	customer := &Customer{
		CustID:       doc.CustID,
		CustType:     doc.CustTyp,
		LoginID:      doc.LoginID,
		PrefixName:   doc.Name.PrefixName,
		FirstName:    doc.Name.FirstName,
		MiddleName:   doc.Name.MiddleName,
		LastName:     doc.Name.LastName,
		SuffixName:   doc.Name.SuffixName,
		DegreeName:   doc.Name.DegreeName,
		InformalName: doc.Name.InformalName,
		DisplayName:  doc.Name.DisplayName,
		Roles:        doc.Roles,
	}

	for _, e := range doc.Emails {
		customer.Emails = append(customer.Emails, common.Email{
			Address:   e.Address,
			Type:      e.EmailType,
			Preferred: e.Preferred == "true",
			Bad:       e.BadAddress == "true",
		})
	}

	for _, p := range doc.Phones {
		customer.Phones = append(customer.Phones, common.Phone{
			Number:    p.Number,
			Type:      p.PhoneType,
			Ext:       p.Ext,
			Preferred: p.Preferred == "true",
		})
	}

	for _, a := range doc.Addresses {
		customer.Addresses = append(customer.Addresses, common.Address{
			Street1:    a.Street1,
			Street2:    a.Street2,
			Street3:    a.Street3,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.CountryCode,
			Type:       a.AddressType,
			Preferred:  a.Preferred == "true",
			Bad:        a.BadAddress == "true",
		})
	}

	for _, j := range doc.Jobs {
		customer.Jobs = append(customer.Jobs, Job{
			EmployerName: j.EmployerName,
			TitleName:    j.TitleName,
			StartDate:    j.StartDate,
			EndDate:      j.EndDate,
			Preferred:    j.Preferred == "true",
		})
	}

	for _, m := range doc.Members {
		customer.Memberships = append(customer.Memberships, MembershipSummary{
			SubgroupID:   m.SubgroupID,
			SubgroupName: m.SubgroupName,
			ClassCode:    m.ClassCode,
			StatusDescr:  m.StatusDescr,
			Active:       m.StatusCode == "ACTIVE",
			JoinDate:     m.JoinDate,
		})
	}

	return customer, nil
}

type memberResponse struct {
	Memberships []memberRecord `xml:"membership"`
}

type memberRecord struct {
	CustomerID              string `xml:"customer-id"`
	SubgroupID              string `xml:"subgroup-id"`
	SubgroupName            string `xml:"subgroup-name"`
	ClassCode               string `xml:"class-cd"`
	SubclassCode            string `xml:"subclass-cd"`
	Status                  string `xml:"status"`
	JoinDate                string `xml:"join-date"`
	ExpireDate              string `xml:"expire-date"`
	ReinstateDate           string `xml:"reinstate-date"`
	TerminateDate           string `xml:"terminate-date"`
	CurrentStatusReasonCode string `xml:"current-status-reason-cd"`
	CurrentStatusReasonNote string `xml:"current-status-reason-note"`
}

func parseMemberships(data []byte) ([]Membership, error) {
	var doc memberResponse
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	memberships := make([]Membership, 0, len(doc.Memberships))
	for _, m := range doc.Memberships {
		memberships = append(memberships, Membership{
			CustomerID:              m.CustomerID,
			SubgroupID:              m.SubgroupID,
			SubgroupName:            m.SubgroupName,
			ClassCode:               m.ClassCode,
			SubclassCode:            m.SubclassCode,
			Status:                  m.Status,
			JoinDate:                m.JoinDate,
			ExpireDate:              m.ExpireDate,
			ReinstateDate:           m.ReinstateDate,
			TerminateDate:           m.TerminateDate,
			CurrentStatusReasonCode: m.CurrentStatusReasonCode,
			CurrentStatusReasonNote: m.CurrentStatusReasonNote,
		})
	}
	return memberships, nil
}

type ecordResponse struct {
	Status string        `xml:"status"`
	Orders []orderRecord `xml:"order"`
}

type orderRecord struct {
	OrderSerno           string `xml:"orderSerno"`
	ProductSerno         string `xml:"productSerno"`
	ProductID            string `xml:"productId"`
	ProductName          string `xml:"productName"`
	ProductType          string `xml:"productType"`
	OrderDate            string `xml:"orderDate"`
	OrderStatus          string `xml:"orderStatus"`
	Quantity             string `xml:"quantity"`
	DefaultUnitCost      string `xml:"defaultUnitCost"`
	PriceProfile         string `xml:"priceProfile"`
	InvoiceBalance       string `xml:"invoiceBalance"`
	InvoiceBalanceStatus string `xml:"invoiceBalanceStatus"`
}

func parsePurchasedProducts(data []byte) ([]PurchasedProduct, error) {
	var doc ecordResponse
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	products := make([]PurchasedProduct, 0, len(doc.Orders))
	for _, o := range doc.Orders {
		products = append(products, PurchasedProduct{
			OrderSerno:           o.OrderSerno,
			ProductSerno:         o.ProductSerno,
			ProductID:            o.ProductID,
			ProductName:          o.ProductName,
			ProductType:          o.ProductType,
			OrderDate:            o.OrderDate,
			OrderStatus:          o.OrderStatus,
			Quantity:             o.Quantity,
			UnitCost:             o.DefaultUnitCost,
			PriceProfile:         o.PriceProfile,
			InvoiceBalance:       o.InvoiceBalance,
			InvoiceBalanceStatus: o.InvoiceBalanceStatus,
		})
	}
	return products, nil
}

type eventResponse struct {
	Events []eventRecord `xml:"event"`
}

type eventRecord struct {
	ID              string `xml:"id"`
	ProgramName     string `xml:"program-name"`
	Name            string `xml:"name"`
	Type            string `xml:"type"`
	TypeDescr       string `xml:"type-descr"`
	Status          string `xml:"status"`
	StartDate       string `xml:"start-dt"`
	EndDate         string `xml:"end-dt"`
	DeadlineDate    string `xml:"deadline-dt"`
	LocationName    string `xml:"location-nm"`
	LocationStreet1 string `xml:"location-street1"`
	LocationStreet2 string `xml:"location-street2"`
	LocationCity    string `xml:"location-city"`
	LocationState   string `xml:"location-state"`
	LocationZip     string `xml:"location-zip"`
	LocationCountry string `xml:"location-country"`
	RegisterURL     string `xml:"register-url"`
	LastChangeDate  string `xml:"lastChangeDate"`
	Attributes      []struct {
		Type           string `xml:"type"`
		Code           string `xml:"code"`
		CharacterValue string `xml:"character-value"`
		NumberValue    string `xml:"number-value"`
		DateValue      string `xml:"date-value"`
	} `xml:"attribute-list>attribute"`
	RegTypes []struct {
		Type        string `xml:"type"`
		Descr       string `xml:"descr"`
		Waitlisting string `xml:"waitlistingFlag"`
		Staff       string `xml:"staffFlag"`
	} `xml:"validRegistrationTypes>regType"`
	Sponsors []struct {
		SponsorID   string `xml:"sponsor-id"`
		SponsorName string `xml:"sponsor-name"`
		SponsorType string `xml:"sponsor-type"`
	} `xml:"sponsor-list>sponsor"`
}

func parseEvents(data []byte) ([]Event, error) {
	var doc eventResponse
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(doc.Events))
	for _, e := range doc.Events {
		event := Event{
			EventID:         e.ID,
			ProgramName:     e.ProgramName,
			Name:            e.Name,
			Type:            e.Type,
			TypeDescr:       e.TypeDescr,
			Status:          e.Status,
			StartDate:       e.StartDate,
			EndDate:         e.EndDate,
			DeadlineDate:    e.DeadlineDate,
			LocationName:    e.LocationName,
			LocationStreet1: e.LocationStreet1,
			LocationStreet2: e.LocationStreet2,
			LocationCity:    e.LocationCity,
			LocationState:   e.LocationState,
			LocationZip:     e.LocationZip,
			LocationCountry: e.LocationCountry,
			RegisterURL:     e.RegisterURL,
			LastChangeDate:  e.LastChangeDate,
		}

		for _, a := range e.Attributes {
			event.Attributes = append(event.Attributes, EventAttribute{
				Type:           a.Type,
				Code:           a.Code,
				CharacterValue: a.CharacterValue,
				NumberValue:    a.NumberValue,
				DateValue:      a.DateValue,
			})
		}
		for _, r := range e.RegTypes {
			event.RegistrationTypes = append(event.RegistrationTypes, RegistrationType{
				Type:        r.Type,
				Descr:       r.Descr,
				Waitlisting: r.Waitlisting == "true",
				Staff:       r.Staff == "true",
			})
		}
		for _, s := range e.Sponsors {
			event.Sponsors = append(event.Sponsors, Sponsor{
				SponsorID:   s.SponsorID,
				SponsorName: s.SponsorName,
				SponsorType: s.SponsorType,
			})
		}

		events = append(events, event)
	}
	return events, nil
}

type registrationResponse struct {
	Registrations []registrationRecord `xml:"registration"`
}

type registrationRecord struct {
	RegistrationID   string `xml:"registration-id"`
	CustomerID       string `xml:"cust-id"`
	EventID          string `xml:"event-id"`
	RegistrationType string `xml:"reg-type"`
	Status           string `xml:"status"`
	RegistrationDate string `xml:"registration-dt"`
	TotalFee         string `xml:"total-fee"`
	Balance          string `xml:"balance"`
	RegistrantName   string `xml:"registrant-name"`
	RegistrantEmail  string `xml:"registrant-email"`
	RegistrantPhone  string `xml:"registrant-phone"`
}

func parseEventRegistrations(data []byte) ([]EventRegistration, error) {
	var doc registrationResponse
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	registrations := make([]EventRegistration, 0, len(doc.Registrations))
	for _, r := range doc.Registrations {
		registrations = append(registrations, EventRegistration{
			RegistrationID:   r.RegistrationID,
			CustomerID:       r.CustomerID,
			EventID:          r.EventID,
			RegistrationType: r.RegistrationType,
			Status:           r.Status,
			RegistrationDate: r.RegistrationDate,
			TotalFee:         r.TotalFee,
			Balance:          r.Balance,
			RegistrantName:   r.RegistrantName,
			RegistrantEmail:  r.RegistrantEmail,
			RegistrantPhone:  r.RegistrantPhone,
		})
	}
	return registrations, nil
}

type queueResponse struct {
	Customers []struct {
		CustID string `xml:"custId"`
		Action string `xml:"action"`
		Reason string `xml:"reason"`
	} `xml:"customer"`
}

func parseQueueUpdates(data []byte) ([]QueueEntry, error) {
	var doc queueResponse
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	entries := make([]QueueEntry, 0, len(doc.Customers))
	for _, c := range doc.Customers {
		entries = append(entries, QueueEntry{
			CustID: c.CustID,
			Action: c.Action,
			Reason: c.Reason,
		})
	}
	return entries, nil
}
