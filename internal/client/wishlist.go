package client

import (
	"context"
	"errors"
	"net/http"

	"hostelhub-backend-go/internal/models"
)

// ErrWishlistFull is returned without contacting the server when the cached
// wishlist already holds Limit hostels.
var ErrWishlistFull = errors.New("wishlist is full")

const DefaultWishlistLimit = 5

// Wishlist edits the student's wishlist. The session copy is a hint used for
// the local cap check; it is replaced from the server after every mutation.
type Wishlist struct {
	c     *Client
	Limit int
}

func (c *Client) Wishlist() *Wishlist {
	return &Wishlist{c: c, Limit: DefaultWishlistLimit}
}

func (w *Wishlist) Cached() []string {
	return w.c.Session.Get().Wishlist
}

func (w *Wishlist) Add(ctx context.Context, hostelID string) ([]string, error) {
	if w.c.Session.Token() == "" {
		return nil, ErrNoSession
	}
	cached := w.Cached()
	for _, id := range cached {
		if id == hostelID {
			return cached, nil
		}
	}
	if len(cached) >= w.Limit {
		return cached, ErrWishlistFull
	}
	err := w.c.doJSON(ctx, http.MethodPost, "/api/students/wishlist/add", map[string]string{"hostelId": hostelID}, nil, true)
	return w.afterMutation(ctx, err)
}

func (w *Wishlist) Remove(ctx context.Context, hostelID string) ([]string, error) {
	err := w.c.doJSON(ctx, http.MethodPost, "/api/students/wishlist/remove", map[string]string{"hostelId": hostelID}, nil, true)
	return w.afterMutation(ctx, err)
}

func (w *Wishlist) Submit(ctx context.Context) (models.Student, error) {
	var student models.Student
	if err := w.c.doJSON(ctx, http.MethodPost, "/api/students/wishlist/submit", nil, &student, true); err != nil {
		return student, err
	}
	_, err := w.Refresh(ctx)
	return student, err
}

// afterMutation refreshes the cache whether or not the mutation succeeded, so
// a rejected add still corrects a stale local count.
func (w *Wishlist) afterMutation(ctx context.Context, mutationErr error) ([]string, error) {
	if errors.Is(mutationErr, ErrNoSession) {
		return nil, mutationErr
	}
	ids, err := w.Refresh(ctx)
	if mutationErr != nil {
		return ids, mutationErr
	}
	return ids, err
}

// Hostels fetches the wishlisted hostels and updates the cached ids.
func (w *Wishlist) Hostels(ctx context.Context) ([]models.Hostel, error) {
	var resp struct {
		Items []models.Hostel `json:"items"`
	}
	if err := w.c.getJSON(ctx, "/api/students/wishlist", &resp); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Items))
	for _, h := range resp.Items {
		ids = append(ids, h.ID)
	}
	return resp.Items, w.c.Session.SetWishlist(ids)
}

func (w *Wishlist) Refresh(ctx context.Context) ([]string, error) {
	hostels, err := w.Hostels(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(hostels))
	for _, h := range hostels {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func (w *Wishlist) Count(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
		Limit int `json:"limit"`
	}
	if err := w.c.getJSON(ctx, "/api/students/wishlist/count", &resp); err != nil {
		return 0, err
	}
	if resp.Limit > 0 {
		w.Limit = resp.Limit
	}
	return resp.Count, nil
}
