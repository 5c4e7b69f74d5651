package common

// ObjectType identifies one of the synchronized record families.
type ObjectType string

const (
	ObjectTypeContacts      ObjectType = "contacts"
	ObjectTypeMemberships   ObjectType = "memberships"
	ObjectTypeOrders        ObjectType = "orders"
	ObjectTypeEvents        ObjectType = "events"
	ObjectTypeRegistrations ObjectType = "registrations"
)

// PipelineObjectTypes are the object types the scheduler runs pipelines for.
// Registrations are synced inside the events pipeline, so they are not listed.
var PipelineObjectTypes = []ObjectType{
	ObjectTypeContacts,
	ObjectTypeMemberships,
	ObjectTypeOrders,
	ObjectTypeEvents,
}

// Email is one entry of a customer's ordered email list.
type Email struct {
	Address   string
	Type      string
	Preferred bool
	Bad       bool
}

// Phone is one entry of a customer's ordered phone list.
type Phone struct {
	Number    string
	Type      string
	Ext       string
	Preferred bool
}

// Address is one entry of a customer's ordered address list.
type Address struct {
	Street1    string
	Street2    string
	Street3    string
	City       string
	State      string
	PostalCode string
	Country    string
	Type       string
	Preferred  bool
	Bad        bool
}

// FieldPair maps one destination field name to one source field name.
type FieldPair struct {
	Destination string `bson:"destination" json:"destination"`
	Source      string `bson:"source" json:"source"`
}

// FieldMapping is the ordered destination→source correspondence for one
// object type. The order is the generation order of the importance lists;
// lookups are by destination name.
type FieldMapping []FieldPair

// Get returns the source field mapped to the given destination field.
func (m FieldMapping) Get(destination string) (string, bool) {
	for _, p := range m {
		if p.Destination == destination {
			return p.Source, true
		}
	}
	return "", false
}

// Selection policies for multi-valued source attributes. Type-specific
// policies ("work", "mobile", "billing", ...) are any other non-empty string.
const (
	SelectFirst      = "first"
	SelectFirstValid = "first-valid"
	SelectPrimary    = "primary"
)

// SelectionPreferences holds the per-attribute selection policy for one
// object type.
type SelectionPreferences struct {
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone" json:"phone"`
	Address string `bson:"address" json:"address"`
}

// DefaultSelectionPreferences is the policy set used when an operator has
// not saved one: skip known-bad entries, otherwise take list order.
func DefaultSelectionPreferences() SelectionPreferences {
	return SelectionPreferences{
		Email:   SelectFirstValid,
		Phone:   SelectFirst,
		Address: SelectFirstValid,
	}
}
