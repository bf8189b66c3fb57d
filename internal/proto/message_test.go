package proto

import (
	"encoding/json"
	"testing"
)

func TestRoomRefDecoding(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RoomRef
		wantErr bool
	}{
		{name: "bare number", input: `7`, want: 7},
		{name: "numeric string", input: `"42"`, want: 42},
		{name: "wrapped number", input: `{"room": 3}`, want: 3},
		{name: "wrapped string", input: `{"room": "9"}`, want: 9},
		{name: "zero", input: `0`, wantErr: true},
		{name: "negative", input: `-4`, wantErr: true},
		{name: "fraction", input: `1.5`, wantErr: true},
		{name: "room name", input: `"general"`, wantErr: true},
		{name: "wrapped without room", input: `{"id": 3}`, wantErr: true},
		{name: "null", input: `null`, wantErr: true},
		{name: "bool", input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got RoomRef
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSendMessageDataAcceptsStringRoom(t *testing.T) {
	var data SendMessageData
	if err := json.Unmarshal([]byte(`{"room":"12","content":"hi","type":"text"}`), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Room != 12 || data.Content != "hi" || data.Type != "text" {
		t.Fatalf("unexpected payload: %+v", data)
	}
}

func TestMessageDeletedOmitsSingleIDForBulk(t *testing.T) {
	raw, err := json.Marshal(MessageDeletedPayload{MessageIDs: []int64{1, 2}, RoomID: 5})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := decoded["messageId"]; ok {
		t.Fatalf("messageId should be omitted for bulk deletes: %s", raw)
	}
	if ids, ok := decoded["messageIds"].([]any); !ok || len(ids) != 2 {
		t.Fatalf("messageIds should list every removed message: %s", raw)
	}
	if decoded["roomId"].(float64) != 5 {
		t.Fatalf("unexpected roomId: %s", raw)
	}
}
