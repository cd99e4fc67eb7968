package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp MessageResponse
		want string
	}{
		{
			name: "single_text_block",
			resp: MessageResponse{Content: []ContentBlock{{Type: "text", Text: `{"company_email":null}`}}},
			want: `{"company_email":null}`,
		},
		{
			name: "skips_non_text_blocks",
			resp: MessageResponse{Content: []ContentBlock{
				{Type: "thinking", Text: "hmm"},
				{Type: "text", Text: "a"},
				{Type: "text", Text: "b"},
			}},
			want: "ab",
		},
		{
			name: "empty",
			resp: MessageResponse{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.resp.Text())
		})
	}
}

func TestToSDKMessagesRoles(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
	})
	assert.Len(t, msgs, 2)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
}
