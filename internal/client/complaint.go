package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"hostelhub-backend-go/internal/models"
)

type ComplaintImage struct {
	Name string
	Body io.Reader
}

type ComplaintForm struct {
	HostelID      string
	Description   string
	ComplaintType string
	IsAnonymous   bool
	Images        []ComplaintImage
}

// Multipart encodes the form the way the complaints endpoint reads it:
// plain fields, isAnonymous as "true"/"false" and one "images" part per file.
func (f ComplaintForm) Multipart() (string, *bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fields := [][2]string{
		{"hostelId", f.HostelID},
		{"description", f.Description},
		{"complaintType", f.ComplaintType},
		{"isAnonymous", strconv.FormatBool(f.IsAnonymous)},
	}
	for _, field := range fields {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return "", nil, err
		}
	}
	for _, image := range f.Images {
		part, err := mw.CreateFormFile("images", image.Name)
		if err != nil {
			return "", nil, err
		}
		if _, err := io.Copy(part, image.Body); err != nil {
			return "", nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return "", nil, err
	}
	return mw.FormDataContentType(), buf, nil
}

func (c *Client) FileComplaint(ctx context.Context, form ComplaintForm) (models.Complaint, error) {
	var complaint models.Complaint
	if c.Session.Token() == "" {
		return complaint, ErrNoSession
	}
	contentType, body, err := form.Multipart()
	if err != nil {
		return complaint, err
	}
	err = c.do(ctx, http.MethodPost, "/api/students/complaints", contentType, body, &complaint, true)
	return complaint, err
}

func (c *Client) Complaints(ctx context.Context) ([]models.Complaint, error) {
	var resp struct {
		Items []models.Complaint `json:"items"`
	}
	path := "/api/students/complaints"
	if c.Session.Get().Role == "owner" {
		path = "/api/owners/complaints"
	}
	err := c.getJSON(ctx, path, &resp)
	return resp.Items, err
}
