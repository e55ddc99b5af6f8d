package preset

import "testing"

func TestResolveExtension(t *testing.T) {
	tests := []struct {
		identifier string
		want       string
	}{
		{"", ".mp4"},
		{"Match Source - Adaptive High Bitrate", ".mp4"},
		{"/Users/edit/Presets/Apple ProRes 422 HQ.epr", ".mov"},
		{"H.264 High Quality", ".mp4"},
		{"H.264 QuickTime", ".mov"}, // wrapper wins over codec
		{"HEVC (H.265) 4K", ".mp4"},
		{"DNxHR HQX", ".mxf"},
		{"XDCAM MXF OP1a", ".mxf"},
		{"Uncompressed AVI", ".avi"},
		{"GoPro CineForm", ".mov"},
		{"WAV 48 kHz", ".wav"},
		{"Waveform Audio", ".wav"},
		{"MP3 320 kbps", ".mp3"},
		{"AAC Audio", ".m4a"},
		{"Totally Unknown Preset", ".mp4"},
	}

	for _, tt := range tests {
		if got := ResolveExtension(tt.identifier); got != tt.want {
			t.Fatalf("ResolveExtension(%q) = %q, want %q", tt.identifier, got, tt.want)
		}
	}
}
