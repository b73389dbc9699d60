package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Ann Smith", "Ann Smith"},
		{"surrounding whitespace", "  Ann Smith  ", "Ann Smith"},
		{"internal runs", "Ann \t  Smith", "Ann Smith"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail(" Ann@Example.COM "); got != "ann@example.com" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeDiscountCode_PreservesCase(t *testing.T) {
	if got := NormalizeDiscountCode(" SAVE20 "); got != "SAVE20" {
		t.Errorf("codes are case-sensitive, got %q", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"us national", "(212) 555-0187", "+12125550187"},
		{"already e164", "+12125550187", "+12125550187"},
		{"garbage", "not-a-phone", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
