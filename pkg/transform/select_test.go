package transform

import (
	"testing"

	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
)

func TestSelectEmail(t *testing.T) {
	emails := []common.Email{
		{Address: "a@example.com", Type: "home", Bad: true},
		{Address: "b@example.com", Type: "work"},
		{Address: "c@example.com", Type: "other", Preferred: true},
	}

	tests := []struct {
		pref string
		want string
	}{
		{common.SelectFirst, "a@example.com"},
		{common.SelectFirstValid, "b@example.com"},
		{common.SelectPrimary, "c@example.com"},
		{"work", "b@example.com"},
		{"WORK", "b@example.com"},
		// Unknown type falls back to first-valid.
		{"billing", "b@example.com"},
	}
	for _, tt := range tests {
		if got := SelectEmail(emails, tt.pref); got != tt.want {
			t.Errorf("SelectEmail(%q) = %q, want %q", tt.pref, got, tt.want)
		}
	}

	if got := SelectEmail(nil, common.SelectFirst); got != "" {
		t.Errorf("SelectEmail(empty) = %q, want empty", got)
	}
}

func TestSelectEmailAllBad(t *testing.T) {
	emails := []common.Email{
		{Address: "a@example.com", Bad: true},
		{Address: "b@example.com", Bad: true},
	}
	// When every entry is flagged bad, list order still wins over nothing.
	if got := SelectEmail(emails, common.SelectFirstValid); got != "a@example.com" {
		t.Errorf("SelectEmail = %q, want a@example.com", got)
	}
}

func TestSelectPhone(t *testing.T) {
	phones := []common.Phone{
		{Number: "312-555-0100", Type: "office", Ext: "42"},
		{Number: "312-555-0101", Type: "mobile", Preferred: true},
	}

	tests := []struct {
		pref string
		want string
	}{
		{common.SelectFirst, "312-555-0100 ext 42"},
		{common.SelectPrimary, "312-555-0101"},
		{"mobile", "312-555-0101"},
		{"fax", "312-555-0100 ext 42"},
	}
	for _, tt := range tests {
		if got := SelectPhone(phones, tt.pref); got != tt.want {
			t.Errorf("SelectPhone(%q) = %q, want %q", tt.pref, got, tt.want)
		}
	}
}

func TestSelectAddress(t *testing.T) {
	addresses := []common.Address{
		{Street1: "1 Bad St", City: "Chicago", Bad: true},
		{Street1: "2 Main St", City: "Chicago", State: "IL", PostalCode: "60601", Type: "billing"},
	}

	if got := SelectAddress(addresses, common.SelectFirstValid); got != "2 Main St, Chicago, IL, 60601" {
		t.Errorf("SelectAddress(first-valid) = %q", got)
	}
	if got := SelectAddress(addresses, common.SelectFirst); got != "1 Bad St, Chicago" {
		t.Errorf("SelectAddress(first) = %q", got)
	}
	if got := SelectAddress(addresses, "billing"); got != "2 Main St, Chicago, IL, 60601" {
		t.Errorf("SelectAddress(billing) = %q", got)
	}
}

func TestFormatAddressSkipsEmptyComponents(t *testing.T) {
	a := common.Address{Street1: "2 Main St", City: "Chicago", Country: "USA"}
	if got := FormatAddress(a); got != "2 Main St, Chicago, USA" {
		t.Errorf("FormatAddress = %q", got)
	}
}
