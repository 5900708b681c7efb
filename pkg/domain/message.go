package domain

// Button is an inline button attached to a message.
// Exactly one of Data (callback) or URL (external link) is set.
type Button struct {
	Label string `yaml:"label" json:"label"`
	Data  string `yaml:"data,omitempty" json:"data,omitempty"`
	URL   string `yaml:"url,omitempty" json:"url,omitempty"`
}

// Message is an outbound text for the user who sent the triggering event.
// Buttons are rendered one per row.
type Message struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
}
