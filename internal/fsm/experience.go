package fsm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Experience phases.
const (
	LoadAssets  State = "loadAssets"
	Entrance    State = "entrance"
	CaptureFace State = "captureFace"
	Playing     State = "playing"
	Share       State = "share"
)

// Experience events.
const (
	EventLoadComplete  Event = "loadComplete"
	EventStart         Event = "start"
	EventCaptured      Event = "captured"
	EventPlayCompleted Event = "playCompleted"
	EventGoEntrance    Event = "goEntrance"
)

// ExperienceStates lists the phases in lifecycle order.
var ExperienceStates = []State{LoadAssets, Entrance, CaptureFace, Playing, Share}

// ExperienceTransitions is the kiosk's fixed transition table.
var ExperienceTransitions = []Transition{
	{Event: EventLoadComplete, From: LoadAssets, To: Entrance},
	{Event: EventStart, From: Entrance, To: CaptureFace},
	{Event: EventCaptured, From: CaptureFace, To: Playing},
	{Event: EventPlayCompleted, From: Playing, To: Share},
	{Event: EventGoEntrance, From: Share, To: Entrance},
}

// NewExperience builds the kiosk machine in LoadAssets.
func NewExperience() (*Machine, error) {
	return New(LoadAssets, ExperienceStates, ExperienceTransitions)
}

// Label renders a state for humans: "captureFace" becomes "Capture Face".
func (s State) Label() string {
	var words []string
	var b strings.Builder
	for i, r := range string(s) {
		if i > 0 && r >= 'A' && r <= 'Z' {
			words = append(words, b.String())
			b.Reset()
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		words = append(words, b.String())
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func (s State) String() string { return string(s) }

func (e Event) String() string { return string(e) }
