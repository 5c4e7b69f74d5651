package transform

import (
	"strings"

	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
)

// Selection resolves a multi-valued source attribute to a single scalar.
// Every policy falls back down the chain when its preferred element is
// absent, ending at plain list order; an empty list always yields "".

// SelectEmail returns one email address per the selection policy.
func SelectEmail(emails []common.Email, pref string) string {
	if len(emails) == 0 {
		return ""
	}

	switch pref {
	case common.SelectFirst:
		return emails[0].Address
	case common.SelectFirstValid:
		for _, e := range emails {
			if !e.Bad && e.Address != "" {
				return e.Address
			}
		}
		return emails[0].Address
	case common.SelectPrimary:
		for _, e := range emails {
			if e.Preferred && e.Address != "" {
				return e.Address
			}
		}
		return SelectEmail(emails, common.SelectFirstValid)
	default:
		// Type-specific preference, e.g. "work"
		for _, e := range emails {
			if strings.EqualFold(e.Type, pref) && e.Address != "" {
				return e.Address
			}
		}
		return SelectEmail(emails, common.SelectFirstValid)
	}
}

// SelectPhone returns one formatted phone number per the selection policy.
func SelectPhone(phones []common.Phone, pref string) string {
	if len(phones) == 0 {
		return ""
	}

	switch pref {
	case common.SelectFirst, common.SelectFirstValid:
		return formatPhone(phones[0])
	case common.SelectPrimary:
		for _, p := range phones {
			if p.Preferred && p.Number != "" {
				return formatPhone(p)
			}
		}
		return formatPhone(phones[0])
	default:
		// Type-specific preference, e.g. "mobile"
		for _, p := range phones {
			if strings.EqualFold(p.Type, pref) && p.Number != "" {
				return formatPhone(p)
			}
		}
		return formatPhone(phones[0])
	}
}

func formatPhone(p common.Phone) string {
	if p.Number == "" {
		return ""
	}
	if p.Ext != "" {
		return p.Number + " ext " + p.Ext
	}
	return p.Number
}

// SelectAddress returns one formatted address per the selection policy.
func SelectAddress(addresses []common.Address, pref string) string {
	if len(addresses) == 0 {
		return ""
	}

	switch pref {
	case common.SelectFirst:
		return FormatAddress(addresses[0])
	case common.SelectFirstValid:
		for _, a := range addresses {
			if !a.Bad && a.Street1 != "" {
				return FormatAddress(a)
			}
		}
		return FormatAddress(addresses[0])
	case common.SelectPrimary:
		for _, a := range addresses {
			if a.Preferred && a.Street1 != "" {
				return FormatAddress(a)
			}
		}
		return SelectAddress(addresses, common.SelectFirstValid)
	default:
		// Type-specific preference, e.g. "billing"
		for _, a := range addresses {
			if strings.EqualFold(a.Type, pref) && a.Street1 != "" {
				return FormatAddress(a)
			}
		}
		return SelectAddress(addresses, common.SelectFirstValid)
	}
}

// FormatAddress joins the non-empty address components into a single
// comma-separated string.
func FormatAddress(a common.Address) string {
	parts := make([]string, 0, 7)
	for _, p := range []string{a.Street1, a.Street2, a.Street3, a.City, a.State, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
