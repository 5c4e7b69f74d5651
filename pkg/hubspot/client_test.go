package hubspot

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/jjpenad/cfma-acgi-integration/pkg/logger"
	"github.com/jjpenad/cfma-acgi-integration/pkg/syncerrors"
)

func testLog() *logger.Logger {
	log := logger.New()
	log.SetLevel("error")
	return log
}

func newTestClient(serverURL string) *Client {
	return NewClient(serverURL, "test-key", 5*time.Second, 1000, testLog())
}

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

func recordingServer(t *testing.T, handler func(r recordedRequest, w http.ResponseWriter)) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		rec := recordedRequest{Method: r.Method, Path: r.URL.Path}
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				_ = json.Unmarshal(data, &rec.Body)
			}
		}
		requests = append(requests, rec)
		handler(rec, w)
	}))
	return server, &requests
}

func TestUpsertUpdatesExistingRecord(t *testing.T) {
	server, requests := recordingServer(t, func(r recordedRequest, w http.ResponseWriter) {
		switch {
		case r.Path == "/crm/v3/objects/memberships/search":
			w.Write([]byte(`{"total":1,"results":[{"id":"777","properties":{}}]}`))
		case r.Method == http.MethodPatch && r.Path == "/crm/v3/objects/memberships/777":
			w.Write([]byte(`{"id":"777"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Upsert(context.Background(), "memberships",
		map[string]string{"customer_id": "500", "class_cd": "REG"},
		map[string]string{"customer_id": "500", "class_cd": "REG", "status": "ACTIVE"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if result.Created || result.ID != "777" {
		t.Errorf("result = %+v, want update of 777", result)
	}
	if len(*requests) != 2 {
		t.Errorf("made %d requests, want search then patch", len(*requests))
	}
}

func TestUpsertCreatesWhenNoMatch(t *testing.T) {
	server, requests := recordingServer(t, func(r recordedRequest, w http.ResponseWriter) {
		switch {
		case r.Path == "/crm/v3/objects/orders/search":
			w.Write([]byte(`{"total":0,"results":[]}`))
		case r.Method == http.MethodPost && r.Path == "/crm/v3/objects/orders":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"888"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.Path)
		}
	})
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Upsert(context.Background(), "orders",
		map[string]string{"order_serno": "9001"},
		map[string]string{"order_serno": "9001", "product_id": "BOOK-1"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !result.Created || result.ID != "888" {
		t.Errorf("result = %+v, want creation of 888", result)
	}
	if len(*requests) != 2 {
		t.Errorf("made %d requests", len(*requests))
	}
}

func TestCreateStripsEmptyProperties(t *testing.T) {
	server, requests := recordingServer(t, func(r recordedRequest, w http.ResponseWriter) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"1"}`))
	})
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Create(context.Background(), "contacts",
		map[string]string{"firstname": "Ada", "lastname": ""})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	body := (*requests)[0].Body
	props, ok := body["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("body = %v", body)
	}
	if _, present := props["lastname"]; present {
		t.Error("empty property was sent")
	}
	if props["firstname"] != "Ada" {
		t.Errorf("properties = %v", props)
	}
}

func TestSearchSkipsEmptyFilterValues(t *testing.T) {
	server, requests := recordingServer(t, func(r recordedRequest, w http.ResponseWriter) {
		w.Write([]byte(`{"total":0,"results":[]}`))
	})
	defer server.Close()

	client := newTestClient(server.URL)
	// All-empty equality pairs mean there is nothing to search on.
	id, err := client.Search(context.Background(), "contacts", map[string]string{"email": ""})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if id != "" {
		t.Errorf("id = %q", id)
	}
	if len(*requests) != 0 {
		t.Errorf("made %d requests, want none", len(*requests))
	}
}

func TestRateLimitedResponseIsRetryable(t *testing.T) {
	server, _ := recordingServer(t, func(r recordedRequest, w http.ResponseWriter) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"slow down"}`))
	})
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Create(context.Background(), "contacts", map[string]string{"firstname": "Ada"})

	var upstream *syncerrors.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if !upstream.Retryable() {
		t.Error("429 not retryable")
	}
}

func TestBadRequestIsNotRetryable(t *testing.T) {
	server, _ := recordingServer(t, func(r recordedRequest, w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"bad property"}`))
	})
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Create(context.Background(), "contacts", map[string]string{"firstname": "Ada"})

	var upstream *syncerrors.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if upstream.Retryable() {
		t.Error("400 reported retryable")
	}
}

func TestUpsertContactTriesStrategiesInOrder(t *testing.T) {
	server, requests := recordingServer(t, func(r recordedRequest, w http.ResponseWriter) {
		switch {
		case r.Path == "/crm/v3/objects/contacts/search":
			groups := r.Body["filterGroups"].([]interface{})
			filters := groups[0].(map[string]interface{})["filters"].([]interface{})
			first := filters[0].(map[string]interface{})
			// Miss on the email search, hit on the customer id search.
			if first["propertyName"] == "email" {
				w.Write([]byte(`{"total":0,"results":[]}`))
			} else {
				w.Write([]byte(`{"total":1,"results":[{"id":"55","properties":{}}]}`))
			}
		case r.Method == http.MethodPatch && r.Path == "/crm/v3/objects/contacts/55":
			w.Write([]byte(`{"id":"55"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.Path)
		}
	})
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.UpsertContact(context.Background(), StrategyEmailThenCustomerID, map[string]string{
		"email":       "ada@example.com",
		"customer_id": "500",
	})
	if err != nil {
		t.Fatalf("UpsertContact: %v", err)
	}
	if result.Created || result.ID != "55" {
		t.Errorf("result = %+v, want update of 55", result)
	}
	// Two searches then one patch.
	if len(*requests) != 3 {
		t.Errorf("made %d requests, want 3", len(*requests))
	}
}

func TestUpsertContactCreatesOnTotalMiss(t *testing.T) {
	server, _ := recordingServer(t, func(r recordedRequest, w http.ResponseWriter) {
		switch {
		case r.Path == "/crm/v3/objects/contacts/search":
			w.Write([]byte(`{"total":0,"results":[]}`))
		case r.Method == http.MethodPost && r.Path == "/crm/v3/objects/contacts":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"56"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.Path)
		}
	})
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.UpsertContact(context.Background(), StrategyEmailOnly, map[string]string{
		"email": "new@example.com",
	})
	if err != nil {
		t.Fatalf("UpsertContact: %v", err)
	}
	if !result.Created || result.ID != "56" {
		t.Errorf("result = %+v, want creation of 56", result)
	}
}
