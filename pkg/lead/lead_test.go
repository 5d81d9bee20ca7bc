package lead

import (
	"testing"

	"sales-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedChooser int

func (f fixedChooser) IntN(n int) int { return int(f) % n }

func TestStrategies(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		text     string
		want     Result
	}{
		{"email", emailStrategy{}, "reach me at Jane.Doe+work@acme.io.", Found(FieldEmail, "Jane.Doe+work@acme.io")},
		{"mailto", emailStrategy{}, "mailto:a@b.com", Found(FieldEmail, "a@b.com")},
		{"no email", emailStrategy{}, "jane at acme", NotFound(FieldEmail)},
		{"im", nameIntroStrategy{}, "Hi, I'm Jane Doe", Found(FieldName, "Jane Doe")},
		{"my name is", nameIntroStrategy{}, "my name is Carlos", Found(FieldName, "Carlos")},
		{"call me", nameIntroStrategy{}, "just call me Sam", Found(FieldName, "Sam")},
		{"trailing connective", nameIntroStrategy{}, "I am Jane Doe from Acme", Found(FieldName, "Jane Doe")},
		{"capped at three words", nameIntroStrategy{}, "I'm Mary Ann Lee Smith", Found(FieldName, "Mary Ann Lee")},
		{"not a name", nameIntroStrategy{}, "I'm interested in pricing", NotFound(FieldName)},
		{"here", nameIntroStrategy{}, "I'm here", NotFound(FieldName)},
		{"residual", residualNameStrategy{}, "Jane Doe, jane@acme.io", Found(FieldName, "Jane Doe")},
		{"residual sentence", residualNameStrategy{}, "My email is a@b.com", NotFound(FieldName)},
		{"residual too long", residualNameStrategy{}, "please send it over a@b.com", NotFound(FieldName)},
		{"bare", bareNameStrategy{}, "  Jane Doe ", Found(FieldName, "Jane Doe")},
		{"bare with digits", bareNameStrategy{}, "Jane 2", NotFound(FieldName)},
		{"bare filler", bareNameStrategy{}, "yes please", NotFound(FieldName)},
		{"phone", phoneStrategy{}, "my phone is +1 (555) 123-4567", Found(FieldPhone, "+1(555)123-4567")},
		{"phone too short", phoneStrategy{}, "call extension 1234", NotFound(FieldPhone)},
		{"company", companyStrategy{}, "I work at Acme Robotics and need an app", Found(FieldCompany, "Acme Robotics")},
		{"company from", companyStrategy{}, "Jane from Globex.", Found(FieldCompany, "Globex")},
		{"company article", companyStrategy{}, "coming from the pricing page", NotFound(FieldCompany)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.strategy.Extract(tt.text))
			assert.Equal(t, tt.want.Field, tt.strategy.Field())
		})
	}
}

func TestFirstFound(t *testing.T) {
	r := FirstFound("Jane Doe a@b.com", nameIntroStrategy{}, residualNameStrategy{})
	assert.Equal(t, Found(FieldName, "Jane Doe"), r)

	r = FirstFound("nothing here", nameIntroStrategy{}, residualNameStrategy{})
	assert.Equal(t, NotFound(FieldName), r)
}

func TestDetector_Detect(t *testing.T) {
	info := store.ResponseMetadata{Confidence: 0.8, Intent: store.IntentInformation}
	lowInfo := store.ResponseMetadata{Confidence: 0.4, Intent: store.IntentInformation}
	pricing := store.ResponseMetadata{Confidence: 0.3, Intent: store.IntentPricing}

	tests := []struct {
		name    string
		message string
		meta    store.ResponseMetadata
		history []store.Turn
		want    *Signal
	}{
		{
			name:    "email and intro in one message",
			message: "My email is a@b.com, I'm Jane Doe",
			meta:    info,
			want:    &Signal{Email: "a@b.com", Name: "Jane Doe"},
		},
		{
			name:    "name before email",
			message: "Jane Doe jane@acme.io",
			meta:    info,
			want:    &Signal{Email: "jane@acme.io", Name: "Jane Doe"},
		},
		{
			name:    "name in history",
			message: "sure, it's jane@acme.io",
			meta:    info,
			history: []store.Turn{
				{Role: store.RoleUser, Content: "I'm Jane and I want a quote"},
				{Role: store.RoleAssistant, Content: "Happy to help. What's your email?"},
			},
			want: &Signal{Email: "jane@acme.io", Name: "Jane"},
		},
		{
			name:    "bare name reply after email",
			message: "Jane Doe",
			meta:    info,
			history: []store.Turn{
				{Role: store.RoleUser, Content: "you can use jane@acme.io"},
				{Role: store.RoleAssistant, Content: "Thanks, and your name?"},
			},
			want: &Signal{Email: "jane@acme.io", Name: "Jane Doe"},
		},
		{
			name:    "history beyond window ignored",
			message: "jane@acme.io",
			meta:    lowInfo,
			history: []store.Turn{
				{Role: store.RoleUser, Content: "I'm Jane"},
				{Role: store.RoleAssistant, Content: "hello"},
				{Role: store.RoleUser, Content: "tell me more"},
				{Role: store.RoleAssistant, Content: "sure"},
			},
			want: nil,
		},
		{
			name:    "assistant turns are not scanned",
			message: "a@b.com",
			meta:    lowInfo,
			history: []store.Turn{{Role: store.RoleAssistant, Content: "Great Question"}},
			want:    nil,
		},
		{
			name:    "phone and company carried",
			message: "I'm Jane Doe from Acme, a@b.com, phone 555 123 4567",
			meta:    info,
			want:    &Signal{Email: "a@b.com", Name: "Jane Doe", Phone: "5551234567", Company: "Acme"},
		},
		{
			name:    "high intent with pricing intent",
			message: "how much would this cost?",
			meta:    pricing,
			want:    &Signal{ShouldAsk: true},
		},
		{
			name:    "high intent with confident information",
			message: "I'm interested in a new project",
			meta:    info,
			want:    &Signal{ShouldAsk: true},
		},
		{
			name:    "high intent but unsure",
			message: "is there a project template?",
			meta:    lowInfo,
			want:    nil,
		},
		{
			name:    "confident without high intent",
			message: "what stack do you use?",
			meta:    info,
			want:    nil,
		},
	}

	d := NewDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.message, tt.meta, tt.history)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetector_Options(t *testing.T) {
	d := NewDetector(WithHistoryTurns(0), WithAskConfidence(0.9), WithHighIntentPhrases("retainer"))
	hist := []store.Turn{{Role: store.RoleUser, Content: "I'm Jane"}}
	assert.Nil(t, d.Detect("a@b.com", store.ResponseMetadata{Confidence: 0.5}, hist))

	got := d.Detect("do you offer a retainer?", store.ResponseMetadata{Confidence: 0.95}, nil)
	require.NotNil(t, got)
	assert.True(t, got.ShouldAsk)
	assert.False(t, got.Complete())
}

func TestCapturePrompt(t *testing.T) {
	assert.Equal(t, capturePrompts[store.IntentDemo][1], CapturePrompt(fixedChooser(1), store.IntentDemo))
	assert.Equal(t, capturePrompts[""][2], CapturePrompt(fixedChooser(5), store.IntentSupport))
	assert.Equal(t, capturePrompts[store.IntentPricing][0], CapturePrompt(nil, store.IntentPricing))
}

func TestThankYou(t *testing.T) {
	assert.Contains(t, ThankYou(&Signal{Name: "Jane"}), "Thanks Jane!")
	assert.Equal(t, "Thanks! We'll follow up within 24 hours.", ThankYou(nil))
}
