package utils

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"bob", "bob"},
		{"  Bob Meier ", "bob-meier"},
		{"Tipp-König!", "tipp-k-nig"},
		{"--", "user"},
		{"", "user"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("geheim123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPasswordHash("geheim123", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("falsch", hash) {
		t.Error("wrong password accepted")
	}
}
