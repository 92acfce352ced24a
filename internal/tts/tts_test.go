package tts

import "testing"

func TestFilterVoices(t *testing.T) {
	voices := []Voice{
		{ID: "1", DisplayName: "Minji", Locale: "ko-KR", Type: "shared"},
		{ID: "2", DisplayName: "Jisoo", Locale: "ko-KR", Type: "Personal"},
		{ID: "3", DisplayName: "George", Locale: "en-US", Type: "shared"},
		{ID: "4", DisplayName: "Mina", Locale: "KO-kr", Type: "ai"},
	}

	tests := []struct {
		name   string
		filter VoiceFilter
		want   []string
	}{
		{name: "no filter drops personal", filter: VoiceFilter{}, want: []string{"1", "3", "4"}},
		{name: "include personal", filter: VoiceFilter{IncludePersonal: true}, want: []string{"1", "2", "3", "4"}},
		{name: "locale is case-insensitive", filter: VoiceFilter{Locale: "ko-kr"}, want: []string{"1", "4"}},
		{name: "name substring", filter: VoiceFilter{NameLike: "MIN"}, want: []string{"1", "4"}},
		{name: "combined", filter: VoiceFilter{Locale: "ko-KR", NameLike: "ji", IncludePersonal: true}, want: []string{"1", "2"}},
		{name: "no match", filter: VoiceFilter{Locale: "ja-JP"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterVoices(voices, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d voices, want %d", len(got), len(tt.want))
			}
			for i, v := range got {
				if v.ID != tt.want[i] {
					t.Errorf("got[%d].ID = %q, want %q", i, v.ID, tt.want[i])
				}
			}
		})
	}
}

func TestValidGender(t *testing.T) {
	for _, g := range []string{"male", "female", "notSpecified"} {
		if !ValidGender(g) {
			t.Errorf("ValidGender(%q) = false, want true", g)
		}
	}
	for _, g := range []string{"", "Male", "other"} {
		if ValidGender(g) {
			t.Errorf("ValidGender(%q) = true, want false", g)
		}
	}
}

func TestValidAudioFormat(t *testing.T) {
	for _, f := range []string{"mp3", "wav", "ogg", "aac"} {
		if !ValidAudioFormat(f) {
			t.Errorf("ValidAudioFormat(%q) = false, want true", f)
		}
	}
	for _, f := range []string{"", "flac", "MP3"} {
		if ValidAudioFormat(f) {
			t.Errorf("ValidAudioFormat(%q) = true, want false", f)
		}
	}
}
