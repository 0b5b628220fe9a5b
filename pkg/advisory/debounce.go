package advisory

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLanguage is the language tag attached to notifications.
const DefaultLanguage = "ko-KR"

// Event asks the notification sink to speak.
type Event struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Lang   string    `json:"lang"`
	Action Action    `json:"action"`
	At     time.Time `json:"at"`
}

// Debouncer emits an Event only when the action changes.
// It is safe for concurrent use.
type Debouncer struct {
	lang string

	mu   sync.Mutex
	last Action
}

// NewDebouncer creates a debouncer in the unset state.
// An empty lang uses DefaultLanguage.
func NewDebouncer(lang string) *Debouncer {
	if lang == "" {
		lang = DefaultLanguage
	}
	return &Debouncer{lang: lang, last: ActionUnset}
}

// MaybeNotify records s and returns an event if its action differs from
// the last one recorded.
func (d *Debouncer) MaybeNotify(s State) (Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.Action == d.last {
		return Event{}, false
	}
	d.last = s.Action

	return Event{
		ID:     uuid.New().String(),
		Text:   s.Text,
		Lang:   d.lang,
		Action: s.Action,
		At:     time.Now(),
	}, true
}

// Last returns the last recorded action.
func (d *Debouncer) Last() Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Lang returns the notification language tag.
func (d *Debouncer) Lang() string {
	return d.lang
}

// Reset returns the debouncer to the unset state so the next decision
// is announced again.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	d.last = ActionUnset
	d.mu.Unlock()
}
