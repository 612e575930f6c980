package internal

import "testing"

func TestParseQuoteRef(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    *QuoteRef
		wantErr bool
	}{
		{name: "empty payload", payload: "", want: nil},
		{
			name:    "full quote",
			payload: `{"sender": "Alice", "content": "see you then"}`,
			want:    &QuoteRef{Sender: "Alice", Content: "see you then"},
		},
		{
			name:    "link share without quote fields",
			payload: `{"link": "https://example.com", "share_text": "a post"}`,
			want:    nil,
		},
		{name: "malformed json", payload: `{"sender":`, wantErr: true},
		{name: "wrong shape", payload: `[1, 2, 3]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuoteRef(tt.payload)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuoteRef: %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
			if got != nil && (got.Sender != tt.want.Sender || got.Content != tt.want.Content) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestQuoteIndexResolve(t *testing.T) {
	ix := NewQuoteIndex()
	ix.Add("Alice", "are you coming?", 1000)
	ix.Add("Me", "  trailing space  ", 2000)

	if !ix.Resolve(&QuoteRef{Sender: "Alice", Content: "are you coming?"}) {
		t.Error("exact match not resolved")
	}
	if !ix.Resolve(&QuoteRef{Sender: "alice", Content: "are you coming?"}) {
		t.Error("sender match should be case-insensitive")
	}
	if !ix.Resolve(&QuoteRef{Sender: "Me", Content: "trailing space"}) {
		t.Error("content match should ignore surrounding whitespace")
	}
	if ix.Resolve(&QuoteRef{Sender: "Bob", Content: "are you coming?"}) {
		t.Error("unknown sender resolved")
	}
	if ix.Resolve(nil) {
		t.Error("nil quote resolved")
	}
}

func TestQuoteIndexFirstOccurrenceWins(t *testing.T) {
	ix := NewQuoteIndex()
	ix.Add("Alice", "ok", 1000)
	ix.Add("Alice", "ok", 5000)
	if ix.Len() != 1 {
		t.Errorf("Len = %d, want 1", ix.Len())
	}
}
