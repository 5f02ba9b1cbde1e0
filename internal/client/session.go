package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// SessionData is what a logged-in client remembers between runs.
type SessionData struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	Role         string   `json:"role"`
	ProfileID    string   `json:"profileId"`
	Email        string   `json:"email"`
	Wishlist     []string `json:"wishlist"`
}

// Session is the process-wide login state backed by a JSON file. The file is
// read once when the session is opened; every change is written back.
// There is no cross-process lock, so the last writer wins.
type Session struct {
	path string

	mu     sync.Mutex
	data   SessionData
	subs   map[int]func(SessionData)
	nextID int
}

// OpenSession loads path if it exists. An empty path keeps the session in
// memory only.
func OpenSession(path string) (*Session, error) {
	s := &Session{path: path, subs: map[int]func(SessionData){}}
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Session) Get() SessionData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyData(s.data)
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Token
}

func (s *Session) Set(data SessionData) error {
	return s.update(func(current *SessionData) { *current = copyData(data) })
}

// SetWishlist replaces only the cached wishlist.
func (s *Session) SetWishlist(ids []string) error {
	return s.update(func(current *SessionData) { current.Wishlist = append([]string{}, ids...) })
}

func (s *Session) Clear() error {
	return s.update(func(current *SessionData) { *current = SessionData{} })
}

// Subscribe registers fn for every later change and returns a function that
// removes it.
func (s *Session) Subscribe(fn func(SessionData)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) update(change func(*SessionData)) error {
	s.mu.Lock()
	change(&s.data)
	snapshot := copyData(s.data)
	err := s.persist(snapshot)
	listeners := make([]func(SessionData), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(copyData(snapshot))
	}
	return err
}

func (s *Session) persist(data SessionData) error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func copyData(data SessionData) SessionData {
	if data.Wishlist != nil {
		data.Wishlist = append([]string{}, data.Wishlist...)
	}
	return data
}
