package model

// ResourceClass distinguishes the two kinds of berth a station offers.
type ResourceClass string

const (
	ClassPlatform ResourceClass = "platform"
	ClassTrack    ResourceClass = "track"
)

// Pairing links two resources that are assigned together to one long train.
// The first resource of the assignment order is the primary.
type Pairing struct {
	LinkedResourceID string `json:"linkedResourceId,omitempty"`
	IsPrimary        bool   `json:"isPrimary"`
}

// Occupant is the train currently holding a resource.
type Occupant struct {
	TrainNo      string `json:"trainNo"`
	Name         string `json:"name"`
	IncomingLine string `json:"incomingLine,omitempty"`
	Terminating  bool   `json:"isTerminating,omitempty"`
}

// Resource is a platform or track slot. A resource under maintenance is never
// simultaneously occupied; pairing metadata is only present while occupied.
type Resource struct {
	ID            string        `json:"id"`
	Class         ResourceClass `json:"class"`
	Occupied      bool          `json:"isOccupied"`
	Maintenance   bool          `json:"isUnderMaintenance"`
	Occupant      *Occupant     `json:"occupant,omitempty"`
	ActualArrival string        `json:"actualArrival,omitempty"`
	Pairing       *Pairing      `json:"pairing,omitempty"`
}

// Clone returns a deep copy of the resource.
func (r Resource) Clone() Resource {
	out := r
	if r.Occupant != nil {
		occ := *r.Occupant
		out.Occupant = &occ
	}
	if r.Pairing != nil {
		p := *r.Pairing
		out.Pairing = &p
	}
	return out
}
