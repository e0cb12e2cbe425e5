package style

import (
	"image/color"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#4A90E2", color.NRGBA{0x4a, 0x90, 0xe2, 0xff}, false},
		{"#fff", color.NRGBA{0xff, 0xff, 0xff, 0xff}, false},
		{"333333", color.NRGBA{0x33, 0x33, 0x33, 0xff}, false},
		{"#00000080", color.NRGBA{0, 0, 0, 0x80}, false},
		{"#12345", color.NRGBA{}, true},
		{"#zzzzzz", color.NRGBA{}, true},
		{"", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestResolveDefault(t *testing.T) {
	r, err := Default().Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	// 0.8 * 255 = 204
	if r.Background.A != 204 {
		t.Errorf("Expected background alpha 204, got %d", r.Background.A)
	}
	if r.Active != (color.NRGBA{0x4a, 0x90, 0xe2, 0xff}) {
		t.Errorf("Unexpected active color %v", r.Active)
	}
}

func TestValidateRejects(t *testing.T) {
	s := Default()
	s.BarHeight = 0
	s.BackgroundOpacity = 1.5
	s.TextColor = "white"
	if err := s.Validate(); err == nil {
		t.Error("Expected error")
	}
	if _, err := s.Resolve(); err == nil {
		t.Error("Expected Resolve to fail")
	}
}
