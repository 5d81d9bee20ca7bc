package lead

import (
	"sales-assistant-be/pkg/store"
)

// Chooser picks an index in [0, n).
type Chooser interface {
	IntN(n int) int
}

var capturePrompts = map[store.Intent][]string{
	store.IntentPricing: {
		"I'd love to put together detailed pricing for you. Could you share your name and email so I can send a personalized quote?",
		"To give you accurate pricing I'll need a little more about your needs. What's your name and email? I'll follow up with the details.",
		"Let me get you the numbers you need. Could you share your name and email for a tailored quote?",
	},
	store.IntentDemo: {
		"I'd be happy to set up a demo! What's your name and email so we can find a time that works?",
		"A demo is the best way to see how we'd help. Could you share your name and email so I can arrange it?",
		"Let's get a walkthrough scheduled. What's your name and email?",
	},
	"": {
		"It sounds like you're interested in taking this further! What's your name and email so we can follow up?",
		"I'd be happy to send you more details. Could you share your name and email?",
		"To make sure the right person follows up, could you share your name and email?",
	},
}

// CapturePrompt returns the question appended to the answer when a lead should
// be asked for contact details.
func CapturePrompt(chooser Chooser, intent store.Intent) string {
	list, ok := capturePrompts[intent]
	if !ok {
		list = capturePrompts[""]
	}
	if chooser == nil {
		return list[0]
	}
	return list[chooser.IntN(len(list))]
}

// ThankYou acknowledges a captured lead.
func ThankYou(s *Signal) string {
	if s == nil || s.Name == "" {
		return "Thanks! We'll follow up within 24 hours."
	}
	return "Thanks " + s.Name + "! I've noted your details and someone from our team will follow up within 24 hours."
}
