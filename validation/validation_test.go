package validation

import (
	"strings"
	"testing"
)

func TestValidateVideoID(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"  dQw4w9WgXcQ \n", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", false},
		{"http://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ", false},
		{"youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/shorts/a1B2c3D4e5_", "a1B2c3D4e5_", false},
		{"https://www.youtube.com/embed/a1B2c3D4e5-", "a1B2c3D4e5-", false},
		{"", "", true},
		{"   ", "", true},
		{"short", "", true},
		{"dQw4w9WgXcQ!", "", true},
		{"https://www.youtube.com/watch", "", true},
		{"https://www.youtube.com/watch?v=tooShort", "", true},
		{"https://vimeo.com/12345678901", "", true},
		{"ftp://youtube.com/watch?v=dQw4w9WgXcQ", "", true},
	}

	for _, tt := range tests {
		got, err := ValidateVideoID(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateVideoID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateVideoID(%q) = %q, want %q", tt.input, got, tt.want)
		}
		if err != nil {
			if _, ok := err.(*ValidationError); !ok {
				t.Errorf("ValidateVideoID(%q) returned %T, want *ValidationError", tt.input, err)
			}
		}
	}
}

func TestValidateQuestion(t *testing.T) {
	if q, err := ValidateQuestion("  what is this about? "); err != nil || q != "what is this about?" {
		t.Errorf("unexpected result %q, %v", q, err)
	}
	if _, err := ValidateQuestion(" \t "); err == nil {
		t.Error("expected error for blank question")
	}
	if _, err := ValidateQuestion(strings.Repeat("a", 4001)); err == nil {
		t.Error("expected error for oversized question")
	}
}
