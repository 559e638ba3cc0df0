package locale

import "testing"

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "zh", want: LanguageChinese},
		{input: "zh-CN", want: LanguageChinese},
		{input: "ZH_hans", want: LanguageChinese},
		{input: "en", want: LanguageEnglish},
		{input: "en-US", want: LanguageEnglish},
		{input: "fr", want: ""},
		{input: "", want: ""},
	}

	for _, tc := range cases {
		if got := NormalizeLanguage(tc.input); got != tc.want {
			t.Fatalf("NormalizeLanguage(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestLanguageFromAcceptLanguage(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "zh-CN,zh;q=0.9", want: LanguageChinese},
		{input: "en-US,en;q=0.9", want: LanguageEnglish},
		{input: "fr-FR", want: ""},
		{input: "", want: ""},
	}

	for _, tc := range cases {
		if got := LanguageFromAcceptLanguage(tc.input); got != tc.want {
			t.Fatalf("LanguageFromAcceptLanguage(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve("", "fr", "en-GB", "zh"); got != LanguageEnglish {
		t.Fatalf("Resolve picked %q, want en", got)
	}
	if got := Resolve("", "de"); got != LanguageChinese {
		t.Fatalf("Resolve fallback = %q, want zh", got)
	}
}

func TestPick(t *testing.T) {
	if got := Pick("en", "hello", "你好"); got != "hello" {
		t.Fatalf("Pick(en) = %q", got)
	}
	if got := Pick("zh", "hello", "你好"); got != "你好" {
		t.Fatalf("Pick(zh) = %q", got)
	}
	if got := Pick("en", "", "你好"); got != "你好" {
		t.Fatalf("Pick(en) without english = %q", got)
	}
}

func TestPreferenceForLanguage(t *testing.T) {
	if pref := PreferenceForLanguage("en"); pref.HTMLLang != "en-US" {
		t.Fatalf("unexpected html lang %q", pref.HTMLLang)
	}
	if pref := PreferenceForLanguage("xx"); pref.Language != LanguageChinese {
		t.Fatalf("unexpected fallback %q", pref.Language)
	}
}
