package webhook

import "encoding/json"

// Event is the provider's webhook envelope. Only the fields the pipeline
// consumes are mapped; everything else is ignored.
type Event struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []Contact        `json:"contacts"`
	Messages         []InboundMessage `json:"messages"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type InboundMessage struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *Text        `json:"text"`
	Interactive *Interactive `json:"interactive"`
}

type Text struct {
	Body string `json:"body"`
}

type Interactive struct {
	Type        string `json:"type"`
	ButtonReply *Reply `json:"button_reply"`
	ListReply   *Reply `json:"list_reply"`
}

type Reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ParsedMessage is the pipeline's normalized view of one inbound message.
type ParsedMessage struct {
	SenderWAID        string
	ProviderMessageID string
	Type              string
	Text              string
	InteractiveID     string
	ProfileName       string
}

// Parse unmarshals a raw webhook body into the provider envelope.
func Parse(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// ExtractMessage pulls the first actionable inbound message out of the
// envelope. Status callbacks and other non-message payloads return false.
func ExtractMessage(ev *Event) (*ParsedMessage, bool) {
	for _, entry := range ev.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) == 0 {
				continue
			}
			msg := change.Value.Messages[0]
			if msg.ID == "" || msg.From == "" {
				continue
			}

			parsed := &ParsedMessage{
				SenderWAID:        msg.From,
				ProviderMessageID: msg.ID,
				Type:              msg.Type,
			}
			if len(change.Value.Contacts) > 0 {
				parsed.ProfileName = change.Value.Contacts[0].Profile.Name
			}

			switch msg.Type {
			case "text":
				if msg.Text == nil {
					continue
				}
				parsed.Text = msg.Text.Body
			case "interactive":
				if msg.Interactive == nil {
					continue
				}
				switch {
				case msg.Interactive.ButtonReply != nil:
					parsed.InteractiveID = msg.Interactive.ButtonReply.ID
				case msg.Interactive.ListReply != nil:
					parsed.InteractiveID = msg.Interactive.ListReply.ID
				default:
					continue
				}
			default:
				// Media and unsupported types are ignored, not failed.
				continue
			}
			return parsed, true
		}
	}
	return nil, false
}
