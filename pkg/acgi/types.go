package acgi

import (
	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
)

// Credentials identifies the integrator account against the association
// management service. Environment is the URL path segment of the target
// instance.
type Credentials struct {
	UserID      string
	Password    string
	Environment string
}

// Customer is the normalized single-customer record. Every field is optional:
// elements absent from the response leave zero values.
type Customer struct {
	CustID       string
	CustType     string
	LoginID      string
	PrefixName   string
	FirstName    string
	MiddleName   string
	LastName     string
	SuffixName   string
	DegreeName   string
	InformalName string
	DisplayName  string
	Roles        []string
	Emails       []common.Email
	Phones       []common.Phone
	Addresses    []common.Address
	Jobs         []Job
	Memberships  []MembershipSummary
}

// Job is one employment entry on a customer record.
type Job struct {
	EmployerName string
	TitleName    string
	StartDate    string
	EndDate      string
	Preferred    bool
}

// MembershipSummary is the membership digest embedded in a customer record.
// The full membership records come from the membership endpoint.
type MembershipSummary struct {
	SubgroupID   string
	SubgroupName string
	ClassCode    string
	StatusDescr  string
	Active       bool
	JoinDate     string
}

// Flatten returns the scalar source fields keyed by their source field names.
// Multi-valued attributes (emails, phones, addresses) are not flattened; the
// normalizer resolves those through selection policies. Employment scalars
// come from the preferred job, falling back to the first.
func (c *Customer) Flatten() map[string]string {
	fields := map[string]string{
		"custId":       c.CustID,
		"custType":     c.CustType,
		"loginId":      c.LoginID,
		"prefixName":   c.PrefixName,
		"firstName":    c.FirstName,
		"middleName":   c.MiddleName,
		"lastName":     c.LastName,
		"suffixName":   c.SuffixName,
		"degreeName":   c.DegreeName,
		"informalName": c.InformalName,
		"displayName":  c.DisplayName,
	}

	if job := c.preferredJob(); job != nil {
		fields["employerName"] = job.EmployerName
		fields["titleName"] = job.TitleName
	}

	return dropEmpty(fields)
}

func (c *Customer) preferredJob() *Job {
	for i := range c.Jobs {
		if c.Jobs[i].Preferred {
			return &c.Jobs[i]
		}
	}
	if len(c.Jobs) > 0 {
		return &c.Jobs[0]
	}
	return nil
}

// Membership is one full membership record for a customer.
type Membership struct {
	CustomerID              string
	SubgroupID              string
	SubgroupName            string
	ClassCode               string
	SubclassCode            string
	Status                  string
	JoinDate                string
	ExpireDate              string
	ReinstateDate           string
	TerminateDate           string
	CurrentStatusReasonCode string
	CurrentStatusReasonNote string
}

// Flatten returns the membership's source fields keyed by source field name.
func (m *Membership) Flatten() map[string]string {
	return dropEmpty(map[string]string{
		"customerId":              m.CustomerID,
		"subgroupId":              m.SubgroupID,
		"subgroupName":            m.SubgroupName,
		"classCd":                 m.ClassCode,
		"subclassCd":              m.SubclassCode,
		"status":                  m.Status,
		"joinDate":                m.JoinDate,
		"expireDate":              m.ExpireDate,
		"reinstateDate":           m.ReinstateDate,
		"terminateDate":           m.TerminateDate,
		"currentStatusReasonCd":   m.CurrentStatusReasonCode,
		"currentStatusReasonNote": m.CurrentStatusReasonNote,
	})
}

// PurchasedProduct is one order line for a customer.
type PurchasedProduct struct {
	CustomerID           string
	OrderSerno           string
	ProductSerno         string
	ProductID            string
	ProductName          string
	ProductType          string
	OrderDate            string
	OrderStatus          string
	Quantity             string
	UnitCost             string
	PriceProfile         string
	InvoiceBalance       string
	InvoiceBalanceStatus string
}

// Flatten returns the order's source fields keyed by source field name.
func (p *PurchasedProduct) Flatten() map[string]string {
	return dropEmpty(map[string]string{
		"customerId":           p.CustomerID,
		"orderSerno":           p.OrderSerno,
		"productSerno":         p.ProductSerno,
		"productId":            p.ProductID,
		"productName":          p.ProductName,
		"productType":          p.ProductType,
		"orderDate":            p.OrderDate,
		"orderStatus":          p.OrderStatus,
		"quantity":             p.Quantity,
		"defaultUnitCost":      p.UnitCost,
		"priceProfile":         p.PriceProfile,
		"invoiceBalance":       p.InvoiceBalance,
		"invoiceBalanceStatus": p.InvoiceBalanceStatus,
	})
}

// Event is one event record.
type Event struct {
	EventID           string
	ProgramName       string
	Name              string
	Type              string
	TypeDescr         string
	Status            string
	StartDate         string
	EndDate           string
	DeadlineDate      string
	LocationName      string
	LocationStreet1   string
	LocationStreet2   string
	LocationCity      string
	LocationState     string
	LocationZip       string
	LocationCountry   string
	RegisterURL       string
	LastChangeDate    string
	Attributes        []EventAttribute
	RegistrationTypes []RegistrationType
	Sponsors          []Sponsor
}

// EventAttribute is one custom attribute attached to an event.
type EventAttribute struct {
	Type           string
	Code           string
	CharacterValue string
	NumberValue    string
	DateValue      string
}

// RegistrationType is one valid registration class for an event.
type RegistrationType struct {
	Type        string
	Descr       string
	Waitlisting bool
	Staff       bool
}

// Sponsor is one sponsor entry for an event.
type Sponsor struct {
	SponsorID   string
	SponsorName string
	SponsorType string
}

// Flatten returns the event's source fields keyed by source field name.
func (e *Event) Flatten() map[string]string {
	return dropEmpty(map[string]string{
		"eventId":         e.EventID,
		"programName":     e.ProgramName,
		"eventName":       e.Name,
		"eventType":       e.Type,
		"eventTypeDescr":  e.TypeDescr,
		"eventStatus":     e.Status,
		"startDate":       e.StartDate,
		"endDate":         e.EndDate,
		"deadlineDate":    e.DeadlineDate,
		"locationName":    e.LocationName,
		"locationStreet1": e.LocationStreet1,
		"locationStreet2": e.LocationStreet2,
		"locationCity":    e.LocationCity,
		"locationState":   e.LocationState,
		"locationZip":     e.LocationZip,
		"locationCountry": e.LocationCountry,
		"registerUrl":     e.RegisterURL,
		"lastChangeDate":  e.LastChangeDate,
	})
}

// EventRegistration is one registration of a customer for an event.
type EventRegistration struct {
	RegistrationID   string
	CustomerID       string
	EventID          string
	RegistrationType string
	Status           string
	RegistrationDate string
	TotalFee         string
	Balance          string
	RegistrantName   string
	RegistrantEmail  string
	RegistrantPhone  string
}

// Flatten returns the registration's source fields keyed by source field name.
func (r *EventRegistration) Flatten() map[string]string {
	return dropEmpty(map[string]string{
		"registrationId":   r.RegistrationID,
		"customerId":       r.CustomerID,
		"eventId":          r.EventID,
		"registrationType": r.RegistrationType,
		"status":           r.Status,
		"registrationDate": r.RegistrationDate,
		"totalFee":         r.TotalFee,
		"balance":          r.Balance,
		"registrantName":   r.RegistrantName,
		"registrantEmail":  r.RegistrantEmail,
		"registrantPhone":  r.RegistrantPhone,
	})
}

// QueueEntry is one pending customer update on the source system's
// integration queue.
type QueueEntry struct {
	CustID string
	Action string
	Reason string
}

func dropEmpty(fields map[string]string) map[string]string {
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	return fields
}
