// Package acgi implements the client for the association management
// service's XML web service libraries. Requests are fixed-shape XML documents
// posted as a form-encoded p_input_xml_doc field; responses are XML documents
// parsed by fixed element paths. The client performs no retries: retry
// policy belongs to the orchestrator.
package acgi

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jjpenad/cfma-acgi-integration/pkg/logger"
	"github.com/jjpenad/cfma-acgi-integration/pkg/syncerrors"
)

// Endpoint paths, one service library procedure per object type.
const (
	pathCustInfo      = "CENSSAWEBSVCLIB.GET_CUST_INFO_XML"
	pathMembers       = "MEMSSAWEBSVCLIB.GET_MEMBERS_XML"
	pathOrders        = "ECSSAWEBSVCLIB.GET_PURCHASED_PRODUCTS_XML"
	pathEventInfo     = "EVTSSAWEBSVCLIB.GET_EVENT_INFO_XML"
	pathRegistrations = "EVTSSAWEBSVCLIB.GET_EVENT_REGISTRATIONS_XML"
	pathQueue         = "CENCUSTINTEGRATESYNCWEBSVCLIB.GET_QUEUE_CUSTS_W_REASONS_XML"
	pathPurgeQueue    = "CENCUSTINTEGRATESYNCWEBSVCLIB.PURGE_QUEUE_XML"
)

// Client is the source system client. Safe for concurrent use.
type Client struct {
	baseURL string
	creds   Credentials
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a new source client.
func NewClient(baseURL string, creds Credentials, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// FetchCustomer fetches and parses one customer record.
func (c *Client) FetchCustomer(ctx context.Context, customerID string) (*Customer, error) {
	doc, err := marshalRequest(newCustInfoRequest(c.creds, customerID))
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, pathCustInfo, doc)
	if err != nil {
		return nil, err
	}

	customer, err := parseCustomer(body)
	if err != nil {
		return nil, &syncerrors.ParseError{System: "acgi", Err: err}
	}
	// The identifier is not always echoed back in the document.
	if customer.CustID == "" {
		customer.CustID = customerID
	}
	return customer, nil
}

// FetchMemberships fetches all membership records for a customer. The
// response does not always carry the customer id per record, so it is
// stamped on here.
func (c *Client) FetchMemberships(ctx context.Context, customerID string) ([]Membership, error) {
	doc, err := marshalRequest(memberRequest{
		VendorID:       c.creds.UserID,
		VendorPassword: c.creds.Password,
		CustID:         customerID,
	})
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, pathMembers, doc)
	if err != nil {
		return nil, err
	}

	memberships, err := parseMemberships(body)
	if err != nil {
		return nil, &syncerrors.ParseError{System: "acgi", Err: err}
	}
	for i := range memberships {
		if memberships[i].CustomerID == "" {
			memberships[i].CustomerID = customerID
		}
	}
	return memberships, nil
}

// FetchPurchasedProducts fetches all order lines for a customer.
func (c *Client) FetchPurchasedProducts(ctx context.Context, customerID string) ([]PurchasedProduct, error) {
	doc, err := marshalRequest(ecordRequest{
		VendorID:       c.creds.UserID,
		VendorPassword: c.creds.Password,
		CustID:         customerID,
	})
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, pathOrders, doc)
	if err != nil {
		return nil, err
	}

	products, err := parsePurchasedProducts(body)
	if err != nil {
		return nil, &syncerrors.ParseError{System: "acgi", Err: err}
	}
	for i := range products {
		products[i].CustomerID = customerID
	}
	return products, nil
}

// FetchEventRegistrations fetches all event registrations for a customer.
func (c *Client) FetchEventRegistrations(ctx context.Context, customerID string) ([]EventRegistration, error) {
	doc, err := marshalRequest(registrationRequest{
		VendorID:       c.creds.UserID,
		VendorPassword: c.creds.Password,
		CustID:         customerID,
	})
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, pathRegistrations, doc)
	if err != nil {
		return nil, err
	}

	registrations, err := parseEventRegistrations(body)
	if err != nil {
		return nil, &syncerrors.ParseError{System: "acgi", Err: err}
	}
	for i := range registrations {
		if registrations[i].CustomerID == "" {
			registrations[i].CustomerID = customerID
		}
	}
	return registrations, nil
}

// FetchEvent fetches one event by its source event id.
func (c *Client) FetchEvent(ctx context.Context, eventID string) (*Event, error) {
	doc, err := marshalRequest(eventRequest{
		VendorID:       c.creds.UserID,
		VendorPassword: c.creds.Password,
		EventID:        eventID,
	})
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, pathEventInfo, doc)
	if err != nil {
		return nil, err
	}

	events, err := parseEvents(body)
	if err != nil {
		return nil, &syncerrors.ParseError{System: "acgi", Err: err}
	}
	if len(events) == 0 {
		return nil, &syncerrors.UpstreamError{System: "acgi", Status: 200,
			Body: "event " + eventID + " not found"}
	}
	return &events[0], nil
}

// FetchQueueUpdates returns the customers currently pending on the source
// system's integration queue.
func (c *Client) FetchQueueUpdates(ctx context.Context) ([]QueueEntry, error) {
	doc, err := marshalRequest(custQueueRequest{
		VendorID:       c.creds.UserID,
		VendorPassword: c.creds.Password,
	})
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, pathQueue, doc)
	if err != nil {
		return nil, err
	}

	entries, err := parseQueueUpdates(body)
	if err != nil {
		return nil, &syncerrors.ParseError{System: "acgi", Err: err}
	}
	return entries, nil
}

// PurgeQueue removes processed customers from the source queue.
func (c *Client) PurgeQueue(ctx context.Context, customerIDs []string) error {
	req := purgeRequest{
		VendorID:       c.creds.UserID,
		VendorPassword: c.creds.Password,
	}
	req.Customers.Customer = customerIDs

	doc, err := marshalRequest(req)
	if err != nil {
		return err
	}

	_, err = c.post(ctx, pathPurgeQueue, doc)
	return err
}

// TestCredentials verifies the configured credentials with a minimal queue
// request.
func (c *Client) TestCredentials(ctx context.Context) error {
	_, err := c.FetchQueueUpdates(ctx)
	return err
}

// post sends a request document to an endpoint and returns the raw response
// body. A transport failure or non-success status is a TransportError.
func (c *Client) post(ctx context.Context, path, requestDoc string) ([]byte, error) {
	endpoint := c.baseURL + "/" + c.creds.Environment + "/" + path

	form := url.Values{}
	form.Set("p_input_xml_doc", requestDoc)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &syncerrors.TransportError{System: "acgi", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "ACGI-HubSpot-Integration/1.0")

	c.log.Debugf("POST %s", endpoint)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &syncerrors.TransportError{System: "acgi", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &syncerrors.TransportError{System: "acgi", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &syncerrors.TransportError{System: "acgi", Status: resp.StatusCode}
	}

	return body, nil
}
