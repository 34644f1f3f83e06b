package schema

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Payload is a structured block embedded in a final answer, describing a
// titled list of items for rich display.
type Payload struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// Item is one entry in a list payload. Only the title is required.
type Item struct {
	Title       string   `json:"title"`
	Role        string   `json:"role,omitempty"`
	Description string   `json:"description,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// PayloadList is the only payload type rendered as structure
	PayloadList = "list"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// IsList returns true if the payload is a renderable list.
func (p *Payload) IsList() bool {
	return p != nil && p.Type == PayloadList
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (p Payload) String() string {
	return Stringify(p)
}
