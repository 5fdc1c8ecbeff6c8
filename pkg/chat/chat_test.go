package chat

import (
	"strings"
	"testing"
)

func TestAskRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     AskRequest
		wantErr string
	}{
		{
			name: "valid request",
			req:  AskRequest{SessionID: 7, SuspectName: "Suspect A", UserText: "Where were you?"},
		},
		{
			name:    "missing session id",
			req:     AskRequest{SuspectName: "Suspect A", UserText: "Where were you?"},
			wantErr: "session id",
		},
		{
			name:    "negative session id",
			req:     AskRequest{SessionID: -1, SuspectName: "Suspect A", UserText: "hm"},
			wantErr: "session id",
		},
		{
			name:    "blank suspect",
			req:     AskRequest{SessionID: 7, SuspectName: "  ", UserText: "Where were you?"},
			wantErr: "suspect name",
		},
		{
			name:    "blank question",
			req:     AskRequest{SessionID: 7, SuspectName: "Suspect A", UserText: "   "},
			wantErr: "cannot be empty",
		},
		{
			name:    "question too long",
			req:     AskRequest{SessionID: 7, SuspectName: "Suspect A", UserText: strings.Repeat("a", MaxQuestionLength+1)},
			wantErr: "maximum length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid request, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMessageID(t *testing.T) {
	if got := MessageID(1700000000, 3, "a_Suspect A"); got != "msg_1700000000_3_a_Suspect A" {
		t.Errorf("unexpected id %q", got)
	}
}
