// Package advisory decides the driving action for a frame and turns
// action changes into spoken notifications.
package advisory

import (
	"github.com/teslashibe/go-roadsense/pkg/perception"
)

// Action is the advised driving behavior.
type Action int

const (
	// ActionUnset is the debouncer's state before any frame was decided.
	ActionUnset Action = iota
	ActionStop
	ActionProceedSlowly
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionStop:
		return "STOP"
	case ActionProceedSlowly:
		return "PROCEED_SLOWLY"
	default:
		return "UNSET"
	}
}

// Code returns a numeric code for gauges: 0 unset, 1 stop, 2 proceed slowly.
func (a Action) Code() int {
	return int(a)
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Phrasebook holds the advisory text per action.
type Phrasebook struct {
	Stop          string `json:"stop"`
	ProceedSlowly string `json:"proceed_slowly"`
}

// EnglishPhrases is the default phrasebook.
var EnglishPhrases = Phrasebook{
	Stop:          "stop",
	ProceedSlowly: "proceed slowly",
}

// KoreanPhrases are spoken prompts for a ko-KR voice.
var KoreanPhrases = Phrasebook{
	Stop:          "정지하십시오",
	ProceedSlowly: "서행하십시오",
}

// Text returns the phrase for a.
func (p Phrasebook) Text(a Action) string {
	switch a {
	case ActionStop:
		return p.Stop
	case ActionProceedSlowly:
		return p.ProceedSlowly
	default:
		return ""
	}
}

// State is a decided action with its advisory text.
type State struct {
	Action Action `json:"action"`
	Text   string `json:"text"`
}

// Decide picks the action for one frame's signals. First match wins:
//
//  1. a close hazard or a red/yellow light stops
//  2. a green light proceeds slowly
//  3. anything else also proceeds slowly
//
// Green never overrides a stop. The idle case deliberately shares the
// green-light text.
func Decide(sig perception.FrameSignals, phrases Phrasebook) State {
	var a Action
	switch {
	case sig.StopDetected || sig.RedOrYellowLight:
		a = ActionStop
	case sig.GreenLight:
		a = ActionProceedSlowly
	default:
		a = ActionProceedSlowly
	}
	return State{Action: a, Text: phrases.Text(a)}
}
