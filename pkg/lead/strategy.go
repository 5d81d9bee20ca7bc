package lead

import (
	"regexp"
	"strings"
)

type Field string

const (
	FieldEmail   Field = "email"
	FieldName    Field = "name"
	FieldPhone   Field = "phone"
	FieldCompany Field = "company"
)

// Result is the outcome of one extraction attempt. Value is meaningful only when Found.
type Result struct {
	Field Field
	Value string
	Found bool
}

func Found(field Field, value string) Result {
	return Result{Field: field, Value: value, Found: true}
}

func NotFound(field Field) Result {
	return Result{Field: field}
}

// Strategy extracts a single contact field from free text.
type Strategy interface {
	Field() Field
	Extract(text string) Result
}

var (
	emailPattern     = regexp.MustCompile(`(?i)(?:mailto:)?([a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,})`)
	nameIntroPattern = regexp.MustCompile(`(?i)(?:^|[^a-z])(?:i'm|i’m|im|i am|my name is|name is|call me|this is)\s+([a-z]+(?:[ \t]+[a-z]+){0,2})`)
	bareNamePattern  = regexp.MustCompile(`^[a-zA-Z\s]{2,30}$`)
	alphaWord        = regexp.MustCompile(`^[a-zA-Z]+$`)
	phonePattern     = regexp.MustCompile(`(?i)(?:phone|call|mobile|cell|whatsapp|tel|number)\D{0,20}?(\+?\d[\d\s\-().]{5,}\d)`)
	companyPattern   = regexp.MustCompile(`(?i)(?:^|[^a-z])(?:company is|company|work at|work for|employed by|from)\s+([a-z0-9&'.\- ]+)`)
	nonDigit         = regexp.MustCompile(`\D`)
)

// Words that can follow "I'm" without being a name.
var notNames = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "interested": {}, "looking": {}, "just": {}, "not": {},
	"trying": {}, "going": {}, "here": {}, "from": {}, "with": {}, "so": {}, "very": {},
	"glad": {}, "happy": {}, "curious": {}, "wondering": {}, "thinking": {}, "planning": {},
	"building": {}, "working": {}, "new": {}, "ready": {}, "still": {}, "also": {}, "sure": {},
	"fine": {}, "good": {}, "ok": {}, "okay": {}, "yes": {}, "no": {}, "hi": {}, "hello": {},
	"hey": {}, "thanks": {}, "thank": {}, "please": {}, "my": {}, "email": {}, "mail": {},
	"is": {}, "me": {}, "at": {}, "you": {}, "can": {}, "reach": {}, "contact": {}, "it": {},
	"its": {}, "send": {}, "to": {}, "and": {}, "in": {}, "on": {}, "for": {}, "of": {},
	"about": {}, "need": {}, "want": {}, "what": {}, "how": {}, "price": {}, "pricing": {},
	"cost": {}, "demo": {}, "website": {}, "app": {}, "project": {}, "address": {},
}

// Trailing connective words dropped from a captured name ("Jane Doe from ...").
var nameTrailers = map[string]struct{}{
	"and": {}, "from": {}, "with": {}, "at": {}, "here": {}, "in": {}, "of": {},
	"my": {}, "email": {}, "is": {}, "for": {}, "to": {}, "i": {},
}

type emailStrategy struct{}

func (emailStrategy) Field() Field { return FieldEmail }

func (emailStrategy) Extract(text string) Result {
	m := emailPattern.FindStringSubmatch(text)
	if m == nil {
		return NotFound(FieldEmail)
	}
	return Found(FieldEmail, strings.TrimRight(m[1], "."))
}

// nameIntroStrategy reads a name introduced with "I'm", "my name is" or "call me".
type nameIntroStrategy struct{}

func (nameIntroStrategy) Field() Field { return FieldName }

func (nameIntroStrategy) Extract(text string) Result {
	for _, m := range nameIntroPattern.FindAllStringSubmatch(text, -1) {
		words := strings.Fields(m[1])
		for len(words) > 0 {
			if _, drop := nameTrailers[strings.ToLower(words[len(words)-1])]; !drop {
				break
			}
			words = words[:len(words)-1]
		}
		if len(words) == 0 || isNotName(words[0]) {
			continue
		}
		return Found(FieldName, strings.Join(words, " "))
	}
	return NotFound(FieldName)
}

// residualNameStrategy treats what is left after removing an email as a name,
// for replies like "Jane Doe jane@acme.io".
type residualNameStrategy struct{}

func (residualNameStrategy) Field() Field { return FieldName }

func (residualNameStrategy) Extract(text string) Result {
	loc := emailPattern.FindStringIndex(text)
	if loc == nil {
		return NotFound(FieldName)
	}
	rest := text[:loc[0]] + " " + text[loc[1]:]
	rest = strings.NewReplacer(",", " ", ";", " ", ":", " ", "-", " ", ".", " ", "!", " ").Replace(rest)
	words := strings.Fields(rest)
	if len(words) < 1 || len(words) > 3 {
		return NotFound(FieldName)
	}
	for _, w := range words {
		if !alphaWord.MatchString(w) || isNotName(w) {
			return NotFound(FieldName)
		}
	}
	return Found(FieldName, strings.Join(words, " "))
}

// bareNameStrategy accepts a short reply made only of letters, as sent after
// being asked for a name.
type bareNameStrategy struct{}

func (bareNameStrategy) Field() Field { return FieldName }

func (bareNameStrategy) Extract(text string) Result {
	t := strings.TrimSpace(text)
	if !bareNamePattern.MatchString(t) {
		return NotFound(FieldName)
	}
	words := strings.Fields(t)
	if len(words) > 3 {
		return NotFound(FieldName)
	}
	for _, w := range words {
		if isNotName(w) {
			return NotFound(FieldName)
		}
	}
	return Found(FieldName, strings.Join(words, " "))
}

type phoneStrategy struct{}

func (phoneStrategy) Field() Field { return FieldPhone }

func (phoneStrategy) Extract(text string) Result {
	m := phonePattern.FindStringSubmatch(text)
	if m == nil {
		return NotFound(FieldPhone)
	}
	if len(nonDigit.ReplaceAllString(m[1], "")) < 7 {
		return NotFound(FieldPhone)
	}
	return Found(FieldPhone, strings.Join(strings.Fields(m[1]), ""))
}

type companyStrategy struct{}

func (companyStrategy) Field() Field { return FieldCompany }

func (companyStrategy) Extract(text string) Result {
	m := companyPattern.FindStringSubmatch(text)
	if m == nil {
		return NotFound(FieldCompany)
	}
	value := m[1]
	if i := strings.Index(strings.ToLower(value), " and "); i >= 0 {
		value = value[:i]
	}
	words := strings.Fields(strings.Trim(value, " .-'"))
	if len(words) == 0 {
		return NotFound(FieldCompany)
	}
	switch strings.ToLower(words[0]) {
	case "the", "a", "an", "my", "your", "you", "here", "home", "scratch":
		return NotFound(FieldCompany)
	}
	if len(words) > 4 {
		words = words[:4]
	}
	return Found(FieldCompany, strings.TrimRight(strings.Join(words, " "), "."))
}

func isNotName(word string) bool {
	_, ok := notNames[strings.ToLower(word)]
	return ok
}

// FirstFound runs strategies in order and returns the first hit.
func FirstFound(text string, strategies ...Strategy) Result {
	for _, s := range strategies {
		if r := s.Extract(text); r.Found {
			return r
		}
	}
	if len(strategies) > 0 {
		return NotFound(strategies[0].Field())
	}
	return Result{}
}
