package audiopipe

import "testing"

func TestSplitRTMPPath(t *testing.T) {
	tests := []struct {
		path      string
		app       string
		streamKey string
	}{
		{"/live/abc123", "live", "abc123"},
		{"/app/nested/key", "app/nested", "key"},
		{"live/stream", "live", "stream"},
		{"/onlyapp", "onlyapp", ""},
		{"", "", ""},
		{"/live/key/", "live", "key"},
	}
	for _, tt := range tests {
		app, key := splitRTMPPath(tt.path)
		if app != tt.app || key != tt.streamKey {
			t.Errorf("splitRTMPPath(%q) = (%q, %q), want (%q, %q)",
				tt.path, app, key, tt.app, tt.streamKey)
		}
	}
}

func TestNewRTMPSink_RejectsBadConfig(t *testing.T) {
	info := &TrackInfo{CodecPrivate: []byte{0x14, 0x08}}

	if _, err := NewRTMPSink(RTMPSinkConfig{URL: "rtmp://host/live/key"}); err == nil {
		t.Error("expected error for missing track info")
	}
	if _, err := NewRTMPSink(RTMPSinkConfig{URL: "rtmp://host/noapp", TrackInfo: info}); err == nil {
		t.Error("expected error for URL without stream key")
	}
	if _, err := NewRTMPSink(RTMPSinkConfig{URL: "://bad url", TrackInfo: info}); err == nil {
		t.Error("expected error for unparseable URL")
	}
}
