package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"AC/DC", "AC-DC"},
		{"Back in Black", "Back in Black"},
		{`What's Going On?`, "What's Going On"},
		{"  Weather Report: Heavy Weather  ", "Weather Report- Heavy Weather"},
		{`<Untitled>|"Demo"`, "UntitledDemo"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"my_track_name", "My Track Name"},
		{"another.track", "Another Track"},
		{"already Good", "Already Good"},
		{"  ", ""},
	}
	for _, tc := range cases {
		if got := TitleCase(tc.in); got != tc.want {
			t.Errorf("TitleCase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
