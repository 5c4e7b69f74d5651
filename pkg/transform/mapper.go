// Package transform is the value-selection and normalization layer between
// source records and destination property bags.
package transform

import (
	"strconv"
	"strings"

	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
	"github.com/jjpenad/cfma-acgi-integration/pkg/logger"
)

// Source is the normalizer's view of one source record: flattened scalar
// fields plus the multi-valued attributes that need selection policies.
type Source struct {
	Fields    map[string]string
	Emails    []common.Email
	Phones    []common.Phone
	Addresses []common.Address
}

// DestinationRecord is the flat property bag sent to the destination, keyed
// by destination field name. Empty values are never present.
type DestinationRecord map[string]string

// Mapper applies a field mapping and selection preferences to source records.
type Mapper struct {
	log *logger.Logger
}

// NewMapper creates a new mapper.
func NewMapper(log *logger.Logger) *Mapper {
	return &Mapper{log: log}
}

// Multi-valued source attribute names. A mapping pair whose source side names
// one of these routes through the selection policies instead of a field read.
const (
	attrEmails    = "emails"
	attrPhones    = "phones"
	attrAddresses = "addresses"
)

// Apply resolves each mapped destination field from the source record.
// Fields whose resolved value is empty are omitted, never sent as empty
// strings. Date fields are emitted as epoch-millisecond decimal strings;
// unparseable dates are skipped with a warning.
func (m *Mapper) Apply(src Source, mapping common.FieldMapping, prefs common.SelectionPreferences) DestinationRecord {
	record := make(DestinationRecord, len(mapping))

	for _, pair := range mapping {
		var value string

		switch pair.Source {
		case attrEmails:
			value = SelectEmail(src.Emails, prefs.Email)
		case attrPhones:
			value = SelectPhone(src.Phones, prefs.Phone)
		case attrAddresses:
			value = SelectAddress(src.Addresses, prefs.Address)
		default:
			value = src.Fields[pair.Source]
		}

		if value == "" {
			continue
		}

		if isDateField(pair.Source) || isDateField(pair.Destination) {
			millis, ok := NormalizeDate(value)
			if !ok {
				m.log.Warnf("skipping field %s: unparseable date %q", pair.Destination, value)
				continue
			}
			value = strconv.FormatInt(millis, 10)
		}

		record[pair.Destination] = value
	}

	return record
}

func isDateField(name string) bool {
	return strings.Contains(strings.ToLower(name), "date")
}
