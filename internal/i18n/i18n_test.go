package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := New("vi", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestTranslateVietnamese(t *testing.T) {
	loc := newBundle(t).Localizer("vi")

	if got := loc.T("LabelExcellent"); got != "Giỏi" {
		t.Errorf("T(LabelExcellent) = %q, want 'Giỏi'", got)
	}
	got := loc.Td("OverallExcellent", map[string]any{"Score": 9, "Label": "Giỏi"})
	want := "Tuyệt vời! Bạn đã đạt điểm 9/10 (Giỏi). Tiếp tục nỗ lực!"
	if got != want {
		t.Errorf("Td(OverallExcellent) = %q, want %q", got, want)
	}
}

func TestTranslateEnglishPlural(t *testing.T) {
	loc := newBundle(t).Localizer("en")

	if got := loc.Tp("PlanDuration", 1); got != "1 day" {
		t.Errorf("Tp(PlanDuration, 1) = %q, want '1 day'", got)
	}
	if got := loc.Tp("PlanDuration", 3); got != "3 days" {
		t.Errorf("Tp(PlanDuration, 3) = %q, want '3 days'", got)
	}
}

func TestAcceptLanguageHeader(t *testing.T) {
	loc := newBundle(t).Localizer("en-US,en;q=0.9")
	if got := loc.T("LabelPass"); got != "Pass" {
		t.Errorf("T(LabelPass) = %q, want 'Pass'", got)
	}
}

func TestUnknownLanguageFallsBackToDefault(t *testing.T) {
	loc := newBundle(t).Localizer("fr")
	if got := loc.T("LabelPass"); got != "Đạt" {
		t.Errorf("T(LabelPass) = %q, want 'Đạt'", got)
	}
}

func TestMissingMessageReturnsID(t *testing.T) {
	loc := newBundle(t).Localizer("en")
	if got := loc.T("NoSuchMessage"); got != "NoSuchMessage" {
		t.Errorf("T(NoSuchMessage) = %q, want the id back", got)
	}
}

func TestLanguages(t *testing.T) {
	langs := newBundle(t).Languages()
	seen := map[string]bool{}
	for _, l := range langs {
		seen[l] = true
	}
	if !seen["vi"] || !seen["en"] {
		t.Errorf("Languages() = %v, want vi and en", langs)
	}
}

func TestMiddleware(t *testing.T) {
	var got string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LanguageFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "vi")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "en" {
		t.Errorf("query param: language = %q, want en", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "vi-VN")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "vi-VN" {
		t.Errorf("header: language = %q, want vi-VN", got)
	}

	if LanguageFrom(context.Background()) != "" {
		t.Error("empty context should carry no language")
	}
}
