package httpapi

import (
	"net/http"

	"hostelhub-backend-go/internal/models"
	"hostelhub-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type VerifyHostelRequest struct {
	Verified *bool `json:"verified"`
}

type WishlistDecisionRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	HostelID  string `json:"hostelId"`
}

type CashbackRequest struct {
	Applied bool `json:"applied"`
}

type WishlistCountEvent struct {
	Count    int      `json:"count"`
	Wishlist []string `json:"wishlist"`
}

func (s *Server) AdminListHostels(w http.ResponseWriter, r *http.Request) {
	hostels, err := services.ListHostels(s.DB, services.HostelScope{})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if r.URL.Query().Get("photos") == "true" {
		services.AttachPhotos(r.Context(), hostels, services.DBPhotoLoader(s.DB, s.Config.MediaStoragePath))
	}
	WriteJSON(w, http.StatusOK, HostelListResponse{Items: hostels, Total: len(hostels)})
}

func (s *Server) AdminGetHostel(w http.ResponseWriter, r *http.Request) {
	s.PublicHostel(w, r)
}

func (s *Server) AdminUpdateHostel(w http.ResponseWriter, r *http.Request) {
	var req services.HostelInput
	if !s.decodeJSON(w, r, &req) {
		return
	}
	hostel, err := services.UpdateHostel(s.DB, chi.URLParam(r, "hostelId"), "", req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, hostel)
}

func (s *Server) AdminDeleteHostel(w http.ResponseWriter, r *http.Request) {
	hostelID := chi.URLParam(r, "hostelId")
	if err := services.DeleteHostel(s.DB, s.Config.MediaStoragePath, hostelID); err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"id": hostelID})
}

func (s *Server) AdminVerifyHostel(w http.ResponseWriter, r *http.Request) {
	var req VerifyHostelRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	verified := true
	if req.Verified != nil {
		verified = *req.Verified
	}
	hostel, err := services.VerifyHostel(s.DB, chi.URLParam(r, "hostelId"), verified)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, hostel)
}

func (s *Server) AdminListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := services.ListStudents(s.DB)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]models.Student{"items": students})
}

func (s *Server) AdminGetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := services.GetStudent(s.DB, chi.URLParam(r, "studentId"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, student)
}

func (s *Server) AdminUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req services.StudentUpdate
	if !s.decodeJSON(w, r, &req) {
		return
	}
	student, err := services.UpdateStudent(s.DB, chi.URLParam(r, "studentId"), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, student)
}

func (s *Server) AdminApplyCashback(w http.ResponseWriter, r *http.Request) {
	var req CashbackRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	student, err := services.ApplyCashback(s.DB, chi.URLParam(r, "studentId"), req.Applied)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, student)
}

func (s *Server) AdminListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := services.ListOwners(s.DB)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]models.Owner{"items": owners})
}

func (s *Server) AdminGetOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := services.GetOwner(s.DB, chi.URLParam(r, "ownerId"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, owner)
}

func (s *Server) AdminUpdateOwner(w http.ResponseWriter, r *http.Request) {
	var req services.OwnerUpdate
	if !s.decodeJSON(w, r, &req) {
		return
	}
	owner, err := services.UpdateOwner(s.DB, chi.URLParam(r, "ownerId"), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, owner)
}

func (s *Server) AdminApproveWishlist(w http.ResponseWriter, r *http.Request) {
	var req WishlistDecisionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	student, err := services.ApproveWishlist(s.DB, req.StudentID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.publishWishlist(student.ID, student.Wishlist)
	WriteJSON(w, http.StatusOK, student)
}

func (s *Server) AdminRemoveWishlist(w http.ResponseWriter, r *http.Request) {
	var req WishlistDecisionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.HostelID == "" {
		WriteValidation(w, map[string]string{"hostelId": "hostelId is required"})
		return
	}
	ids, err := services.AdminRemoveFromWishlist(s.DB, req.StudentID, req.HostelID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.publishWishlist(req.StudentID, ids)
	WriteJSON(w, http.StatusOK, map[string]interface{}{"studentId": req.StudentID, "wishlist": ids})
}

// publishWishlist pushes the current wishlist to the student's open sockets.
// Student profiles share the user id.
func (s *Server) publishWishlist(studentID string, ids []string) {
	if s.Events == nil {
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.Events.PublishToUser(studentID, services.TopicWishlistCount, WishlistCountEvent{Count: len(ids), Wishlist: ids})
}

func (s *Server) DashboardHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 60)
	if limit > 1440 {
		limit = 1440
	}
	samples, err := services.LatestDashboard(s.DB, limit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]services.DashboardSample{"items": samples})
}
