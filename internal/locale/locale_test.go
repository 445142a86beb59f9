package locale

import (
	"errors"
	"testing"

	"storefront/internal/clientstate"
	"storefront/internal/models"
)

func TestStoreDefaultsAndPersists(t *testing.T) {
	storage := clientstate.NewMemoryStorage()
	store, err := NewStore(storage)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	if store.Language() != "fr" || store.Direction() != "ltr" {
		t.Fatalf("unexpected defaults: %s %s", store.Language(), store.Direction())
	}

	if err := store.SetLanguage("AR"); err != nil {
		t.Fatalf("SetLanguage returned error: %v", err)
	}
	if err := store.SetLanguage("en"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}

	reloaded, _ := NewStore(storage)
	if reloaded.Language() != "ar" || reloaded.Direction() != "rtl" {
		t.Fatalf("expected persisted arabic, got %s", reloaded.Language())
	}
	if got := reloaded.Text(models.Translated("Pain", "خبز")); got != "خبز" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestNegotiate(t *testing.T) {
	cases := []struct {
		explicit, header, want string
	}{
		{"ar", "", "ar"},
		{"en", "ar-MA,fr;q=0.8", "ar"},
		{"", "en-US,fr-FR;q=0.9", "fr"},
		{"", "de", "fr"},
	}
	for _, tc := range cases {
		if got := Negotiate(tc.explicit, tc.header); got != tc.want {
			t.Fatalf("Negotiate(%q, %q) = %q, want %q", tc.explicit, tc.header, got, tc.want)
		}
	}
}
