// Package locale tracks the shopper's language and resolves localized text.
package locale

import (
	"errors"
	"strings"
	"sync"

	"storefront/internal/clientstate"
	"storefront/internal/models"
)

const Default = models.LangFR

var ErrUnsupportedLanguage = errors.New("unsupported language")

func Supported(lang string) bool {
	return lang == models.LangFR || lang == models.LangAR
}

func Direction(lang string) string {
	if lang == models.LangAR {
		return "rtl"
	}
	return "ltr"
}

// Negotiate picks a supported language from an explicit choice or an
// Accept-Language header, defaulting to fr.
func Negotiate(explicit, acceptLanguage string) string {
	if lang := strings.ToLower(strings.TrimSpace(explicit)); Supported(lang) {
		return lang
	}
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		base := strings.SplitN(tag, "-", 2)[0]
		if Supported(base) {
			return base
		}
	}
	return Default
}

type State struct {
	Language string `json:"language"`
}

// Store persists the selected language under language-storage.
type Store struct {
	mu      sync.Mutex
	state   State
	storage clientstate.Storage
}

func NewStore(storage clientstate.Storage) (*Store, error) {
	if storage == nil {
		storage = clientstate.NewMemoryStorage()
	}
	s := &Store{state: State{Language: Default}, storage: storage}
	if _, err := clientstate.LoadSnapshot(storage, clientstate.LanguageKey, &s.state); err != nil {
		return nil, err
	}
	if !Supported(s.state.Language) {
		s.state.Language = Default
	}
	return s, nil
}

func (s *Store) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Language
}

func (s *Store) SetLanguage(lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !Supported(lang) {
		return ErrUnsupportedLanguage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Language = lang
	return clientstate.SaveSnapshot(s.storage, clientstate.LanguageKey, 0, s.state)
}

func (s *Store) Direction() string {
	return Direction(s.Language())
}

func (s *Store) Text(t models.LocalizedText) string {
	return t.Resolve(s.Language())
}
