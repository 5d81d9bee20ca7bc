package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatRequest_Sanitize(t *testing.T) {
	tests := []struct {
		name string
		in   []ChatMessage
		want []ChatMessage
	}{
		{
			name: "drops empty earlier messages",
			in: []ChatMessage{
				{Role: "user", Content: "hi"},
				{Role: "assistant", Content: "  "},
				{Role: "User", Content: "\x00"},
				{Role: "user", Content: "pricing?"},
			},
			want: []ChatMessage{
				{Role: "user", Content: "hi"},
				{Role: "user", Content: "pricing?"},
			},
		},
		{
			name: "keeps an empty last message",
			in:   []ChatMessage{{Role: "user", Content: "hi"}, {Role: "user", Content: " \x01 "}},
			want: []ChatMessage{{Role: "user", Content: "hi"}, {Role: "user", Content: ""}},
		},
		{
			name: "strips control characters but keeps newlines",
			in:   []ChatMessage{{Role: " USER ", Content: "a\x07b\nc\td"}},
			want: []ChatMessage{{Role: "user", Content: "ab\nc\td"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ChatRequest{Messages: tt.in}
			req.Sanitize()
			assert.Equal(t, tt.want, req.Messages)
		})
	}
}
