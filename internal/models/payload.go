package models

// Payload is the body sent to every sink for one (message, sensor) pair.
type Payload struct {
	State      string     `json:"state"`
	Attributes Attributes `json:"attributes"`
}

// Attributes carries the enriched message fields.
type Attributes struct {
	MessageID    string    `json:"message_id"`
	TimeReceived string    `json:"time received"`
	GroupID      string    `json:"group id"`
	Receivers    string    `json:"receivers"`
	Capcodes     []string  `json:"capcodes"`
	Priority     int       `json:"priority"`
	Disciplines  string    `json:"disciplines"`
	RawMessage   string    `json:"raw message"`
	Region       string    `json:"region"`
	Location     string    `json:"location"`
	PostalCode   string    `json:"postal code"`
	City         string    `json:"city"`
	Address      string    `json:"address"`
	Street       string    `json:"street"`
	Remarks      string    `json:"remarks"`
	Longitude    *float64  `json:"longitude"`
	Latitude     *float64  `json:"latitude"`
	OpenCage     string    `json:"opencage"`
	GeoStatus    GeoStatus `json:"geo_status"`
	MapURL       string    `json:"mapurl"`
	Distance     *float64  `json:"distance"`
	FriendlyName string    `json:"friendly_name"`
}

// Decision values recorded in the dispatch journal.
const (
	DecisionPosted  = "posted"
	DecisionSkipped = "skipped"
)

// JournalEntry is one post/skip decision.
type JournalEntry struct {
	MessageID string
	Sensor    string
	Decision  string
	Reason    string
	Body      string
	Region    string
	MapURL    string
}
