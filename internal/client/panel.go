package client

import (
	"context"
	"net/http"

	"hostelhub-backend-go/internal/models"
	"hostelhub-backend-go/internal/services"
)

// Mutation policies for the admin panels:
//
//	verify, edit, cashback, approve: patch the returned entity into the list
//	delete, wishlist remove:          drop the id from the local list
//	load:                             full refetch
//
// No mutation refetches the whole list on success.

// replaceByID swaps in v for the element with the same id. Unknown ids are
// appended.
func replaceByID[T any](items []T, v T, id func(T) string) []T {
	for i := range items {
		if id(items[i]) == id(v) {
			items[i] = v
			return items
		}
	}
	return append(items, v)
}

func removeByID[T any](items []T, target string, id func(T) string) []T {
	out := items[:0]
	for _, item := range items {
		if id(item) != target {
			out = append(out, item)
		}
	}
	return out
}

func hostelID(h models.Hostel) string   { return h.ID }
func studentID(s models.Student) string { return s.ID }
func ownerID(o models.Owner) string     { return o.ID }

type HostelPanel struct {
	c     *Client
	Items []models.Hostel
}

func (c *Client) HostelPanel() *HostelPanel {
	return &HostelPanel{c: c}
}

// Load fetches every hostel and, when photos is set, joins each hostel's
// photos concurrently. A hostel whose photos fail keeps an empty list.
func (p *HostelPanel) Load(ctx context.Context, photos bool) error {
	var resp struct {
		Items []models.Hostel `json:"items"`
	}
	if err := p.c.getJSON(ctx, "/api/admin/hostels", &resp); err != nil {
		return err
	}
	if photos {
		services.AttachPhotos(ctx, resp.Items, p.c.HostelPhotos)
	}
	p.Items = resp.Items
	return nil
}

func (p *HostelPanel) Verify(ctx context.Context, id string, verified bool) (models.Hostel, error) {
	var hostel models.Hostel
	err := p.c.doJSON(ctx, http.MethodPut, "/api/admin/hostels/"+id+"/verify", map[string]bool{"verified": verified}, &hostel, true)
	if err != nil {
		return hostel, err
	}
	p.Items = replaceByID(p.Items, p.keepImages(hostel), hostelID)
	return hostel, nil
}

func (p *HostelPanel) Update(ctx context.Context, id string, input services.HostelInput) (models.Hostel, error) {
	var hostel models.Hostel
	if err := p.c.doJSON(ctx, http.MethodPut, "/api/admin/hostels/"+id, input, &hostel, true); err != nil {
		return hostel, err
	}
	p.Items = replaceByID(p.Items, p.keepImages(hostel), hostelID)
	return hostel, nil
}

func (p *HostelPanel) Delete(ctx context.Context, id string) error {
	if err := p.c.doJSON(ctx, http.MethodDelete, "/api/admin/hostels/"+id, nil, nil, true); err != nil {
		return err
	}
	p.Items = removeByID(p.Items, id, hostelID)
	return nil
}

// keepImages carries already joined photos over to a patched hostel.
func (p *HostelPanel) keepImages(h models.Hostel) models.Hostel {
	for _, existing := range p.Items {
		if existing.ID == h.ID && len(h.Images) == 0 {
			h.Images = existing.Images
		}
	}
	return h
}

type StudentPanel struct {
	c     *Client
	Items []models.Student
}

func (c *Client) StudentPanel() *StudentPanel {
	return &StudentPanel{c: c}
}

func (p *StudentPanel) Load(ctx context.Context) error {
	var resp struct {
		Items []models.Student `json:"items"`
	}
	if err := p.c.getJSON(ctx, "/api/admin/students", &resp); err != nil {
		return err
	}
	p.Items = resp.Items
	return nil
}

func (p *StudentPanel) Update(ctx context.Context, id string, update services.StudentUpdate) (models.Student, error) {
	return p.patch(ctx, http.MethodPut, "/api/admin/students/"+id, update)
}

func (p *StudentPanel) ApproveWishlist(ctx context.Context, id string) (models.Student, error) {
	return p.patch(ctx, http.MethodPost, "/api/admin/approve-wishlist", map[string]string{"studentId": id})
}

func (p *StudentPanel) ApplyCashback(ctx context.Context, id string, applied bool) (models.Student, error) {
	return p.patch(ctx, http.MethodPut, "/api/admin/students/"+id+"/cashback", map[string]bool{"applied": applied})
}

func (p *StudentPanel) RemoveFromWishlist(ctx context.Context, id, hostel string) error {
	var resp struct {
		Wishlist []string `json:"wishlist"`
	}
	err := p.c.doJSON(ctx, http.MethodPost, "/api/admin/wishlist/remove", map[string]string{"studentId": id, "hostelId": hostel}, &resp, true)
	if err != nil {
		return err
	}
	for i := range p.Items {
		if p.Items[i].ID == id {
			p.Items[i].Wishlist = resp.Wishlist
			if len(resp.Wishlist) == 0 && p.Items[i].AdmittedHostel == nil {
				p.Items[i].WishlistSubmitted = false
				p.Items[i].WishlistApproved = false
			}
		}
	}
	return nil
}

func (p *StudentPanel) patch(ctx context.Context, method, path string, in interface{}) (models.Student, error) {
	var student models.Student
	if err := p.c.doJSON(ctx, method, path, in, &student, true); err != nil {
		return student, err
	}
	p.Items = replaceByID(p.Items, student, studentID)
	return student, nil
}

type OwnerPanel struct {
	c     *Client
	Items []models.Owner
}

func (c *Client) OwnerPanel() *OwnerPanel {
	return &OwnerPanel{c: c}
}

func (p *OwnerPanel) Load(ctx context.Context) error {
	var resp struct {
		Items []models.Owner `json:"items"`
	}
	if err := p.c.getJSON(ctx, "/api/admin/owners", &resp); err != nil {
		return err
	}
	p.Items = resp.Items
	return nil
}

func (p *OwnerPanel) Update(ctx context.Context, id string, update services.OwnerUpdate) (models.Owner, error) {
	var owner models.Owner
	if err := p.c.doJSON(ctx, http.MethodPut, "/api/admin/owners/"+id, update, &owner, true); err != nil {
		return owner, err
	}
	p.Items = replaceByID(p.Items, owner, ownerID)
	return owner, nil
}
