package googlefit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Account is a signed-in Google account together with what it has granted
type Account struct {
	Email         string
	GrantedScopes []string
	Token         *oauth2.Token
}

// HasScopes reports whether every scope in want has been granted
func (a *Account) HasScopes(want []string) bool {
	if a == nil {
		return false
	}
	granted := make(map[string]struct{}, len(a.GrantedScopes))
	for _, s := range a.GrantedScopes {
		granted[s] = struct{}{}
	}
	for _, s := range want {
		if _, ok := granted[s]; !ok {
			return false
		}
	}
	return true
}

// accountEntry is the on-disk form of an Account
type accountEntry struct {
	Email         string    `json:"email"`
	GrantedScopes []string  `json:"granted_scopes"`
	AccessToken   string    `json:"access_token"`
	TokenType     string    `json:"token_type,omitempty"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	Expiry        time.Time `json:"expiry"`
}

// AccountStore keeps the signed-in account in memory and mirrors it to disk
type AccountStore struct {
	fs      FileSystem
	path    string
	mu      sync.Mutex
	account *Account
}

// NewAccountStore creates a store backed by path and loads any saved account.
// A missing file means nobody has signed in yet.
func NewAccountStore(fsys FileSystem, path string) (*AccountStore, error) {
	s := &AccountStore{fs: fsys, path: path}
	if err := s.load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return s, nil
}

// Current returns a copy of the signed-in account, or nil
func (s *AccountStore) Current() *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return nil
	}
	acct := *s.account
	acct.GrantedScopes = append([]string(nil), s.account.GrantedScopes...)
	return &acct
}

// Save replaces the stored account and writes it to disk
func (s *AccountStore) Save(acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = acct
	return s.save()
}

// UpdateToken stores a refreshed token for the current account
func (s *AccountStore) UpdateToken(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return errors.New("no account to update")
	}
	s.account.Token = tok
	return s.save()
}

func (s *AccountStore) load() error {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return err
	}

	var entry accountEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return fmt.Errorf("failed to unmarshal account: %w", err)
	}
	if entry.AccessToken == "" && entry.RefreshToken == "" {
		return nil
	}

	s.account = &Account{
		Email:         entry.Email,
		GrantedScopes: entry.GrantedScopes,
		Token: &oauth2.Token{
			AccessToken:  entry.AccessToken,
			TokenType:    entry.TokenType,
			RefreshToken: entry.RefreshToken,
			Expiry:       entry.Expiry,
		},
	}
	return nil
}

// save writes the account file; callers hold s.mu
func (s *AccountStore) save() error {
	entry := accountEntry{}
	if s.account != nil {
		entry.Email = s.account.Email
		entry.GrantedScopes = s.account.GrantedScopes
		if tok := s.account.Token; tok != nil {
			entry.AccessToken = tok.AccessToken
			entry.TokenType = tok.TokenType
			entry.RefreshToken = tok.RefreshToken
			entry.Expiry = tok.Expiry
		}
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create account directory: %w", err)
	}
	if err := s.fs.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write account: %w", err)
	}
	return nil
}

// mergeScopes unions the previously granted scopes with newly granted ones
func mergeScopes(existing []string, granted string) []string {
	set := make(map[string]struct{})
	for _, s := range existing {
		set[s] = struct{}{}
	}
	for _, s := range strings.Fields(granted) {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
