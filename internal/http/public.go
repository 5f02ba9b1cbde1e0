package httpapi

import (
	"net/http"

	"hostelhub-backend-go/internal/models"
	"hostelhub-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type HostelListResponse struct {
	Items []models.Hostel `json:"items"`
	Total int             `json:"total"`
}

// PublicHostels runs the listing filters from the query string over every
// hostel. Photos are joined only when photos=true.
func (s *Server) PublicHostels(w http.ResponseWriter, r *http.Request) {
	hostels, err := services.ListHostels(s.DB, services.HostelScope{})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	filtered := services.FilterHostels(hostels, services.ParseFilterQuery(r.URL.Query()))
	if r.URL.Query().Get("photos") == "true" {
		services.AttachPhotos(r.Context(), filtered, services.DBPhotoLoader(s.DB, s.Config.MediaStoragePath))
	}
	WriteJSON(w, http.StatusOK, HostelListResponse{Items: filtered, Total: len(filtered)})
}

func (s *Server) PublicHostel(w http.ResponseWriter, r *http.Request) {
	hostel, err := services.GetHostel(s.DB, chi.URLParam(r, "hostelId"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, hostel)
}

func (s *Server) HostelPhotos(w http.ResponseWriter, r *http.Request) {
	hostelID := chi.URLParam(r, "hostelId")
	if _, err := services.GetHostel(s.DB, hostelID); err != nil {
		writeFailure(w, r, err)
		return
	}
	images, err := services.HostelPhotos(s.DB, s.Config.MediaStoragePath, hostelID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]models.Image{"images": images})
}

// MediaContent serves hostel photos without a token. Every other bucket goes
// through PrivateMediaContent.
func (s *Server) MediaContent(w http.ResponseWriter, r *http.Request) {
	asset, err := services.GetMediaAsset(s.DB, chi.URLParam(r, "assetId"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if !services.PublicBucket(asset.Bucket) {
		WriteError(w, http.StatusNotFound, "Media not found")
		return
	}
	s.serveAsset(w, r, asset)
}

func (s *Server) PrivateMediaContent(w http.ResponseWriter, r *http.Request) {
	asset, err := services.GetMediaAsset(s.DB, chi.URLParam(r, "assetId"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	ok, err := services.CanViewAsset(s.DB, asset, CurrentUserID(r), CurrentRoles(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if !ok {
		WriteError(w, http.StatusNotFound, "Media not found")
		return
	}
	s.serveAsset(w, r, asset)
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request, asset models.MediaAsset) {
	if asset.Filename != nil {
		w.Header().Set("Content-Disposition", "inline; filename=\""+*asset.Filename+"\"")
	}
	if asset.ContentType != "" {
		w.Header().Set("Content-Type", asset.ContentType)
	}
	http.ServeFile(w, r, services.AssetPath(s.Config.MediaStoragePath, asset))
}
