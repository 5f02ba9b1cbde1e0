package httpapi

import (
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"hostelhub-backend-go/internal/models"
	"hostelhub-backend-go/internal/services"
)

type HostelRequest struct {
	HostelID string `json:"hostelId" validate:"required"`
}

const maxComplaintImages = 5

func (s *Server) StudentProfile(w http.ResponseWriter, r *http.Request) {
	student, err := services.GetStudent(s.DB, CurrentUserID(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	state := services.StudentStateOf(services.FlagsOf(student))
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"student":        student,
		"state":          state,
		"allowedActions": services.AllowedActions(state),
	})
}

func (s *Server) StudentWishlist(w http.ResponseWriter, r *http.Request) {
	hostels, err := services.WishlistHostels(s.DB, CurrentUserID(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, HostelListResponse{Items: hostels, Total: len(hostels)})
}

func (s *Server) StudentWishlistCount(w http.ResponseWriter, r *http.Request) {
	count, err := services.WishlistCount(s.DB, CurrentUserID(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"count": count, "limit": s.Config.WishlistLimit})
}

func (s *Server) StudentWishlistAdd(w http.ResponseWriter, r *http.Request) {
	studentID := CurrentUserID(r)
	var req HostelRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	ids, err := services.AddToWishlist(s.DB, studentID, req.HostelID, s.Config.WishlistLimit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.publishWishlist(studentID, ids)
	WriteJSON(w, http.StatusOK, map[string][]string{"wishlist": ids})
}

func (s *Server) StudentWishlistRemove(w http.ResponseWriter, r *http.Request) {
	studentID := CurrentUserID(r)
	var req HostelRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	ids, err := services.RemoveFromWishlist(s.DB, studentID, req.HostelID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.publishWishlist(studentID, ids)
	WriteJSON(w, http.StatusOK, map[string][]string{"wishlist": ids})
}

func (s *Server) StudentWishlistSubmit(w http.ResponseWriter, r *http.Request) {
	student, err := services.SubmitWishlist(s.DB, CurrentUserID(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, student)
}

func (s *Server) StudentRequestVisit(w http.ResponseWriter, r *http.Request) {
	var req services.VisitRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	visit, err := services.RequestVisit(s.DB, CurrentUserID(r), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.notifyHostelOwner(visit)
	WriteJSON(w, http.StatusOK, visit)
}

// notifyHostelOwner pushes a changed visit to the owner of its hostel.
func (s *Server) notifyHostelOwner(visit models.Visit) {
	if s.Events == nil {
		return
	}
	hostel, err := services.GetHostel(s.DB, visit.HostelID)
	if err != nil {
		log.Printf("visit %s owner lookup: %v", visit.ID, err)
		return
	}
	if hostel.OwnerID != "" {
		s.Events.PublishToUser(hostel.OwnerID, services.TopicVisitsUpdated, visit)
	}
}

func (s *Server) StudentVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := services.ListStudentVisits(s.DB, CurrentUserID(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]models.Visit{"items": visits})
}

func (s *Server) StudentTakeAdmission(w http.ResponseWriter, r *http.Request) {
	var req HostelRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	student, err := services.TakeAdmission(s.DB, CurrentUserID(r), req.HostelID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, student)
}

func (s *Server) StudentNotInterested(w http.ResponseWriter, r *http.Request) {
	var req HostelRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	student, err := services.MarkNotInterested(s.DB, CurrentUserID(r), req.HostelID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, student)
}

func (s *Server) StudentUploadReceipt(w http.ResponseWriter, r *http.Request) {
	studentID := CurrentUserID(r)
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "File is empty")
		return
	}
	file, header, err := r.FormFile("receipt")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "File is empty")
		return
	}
	defer file.Close()
	assetID, err := services.SaveMediaAsset(s.DB, s.Config.MediaStoragePath, services.BucketReceipts, header.Filename, studentID, file)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	previous, err := services.AttachReceipt(s.DB, studentID, assetID)
	if err != nil {
		_ = services.DeleteAsset(s.DB, s.Config.MediaStoragePath, assetID)
		writeFailure(w, r, err)
		return
	}
	if previous != "" && previous != assetID {
		_ = services.DeleteAsset(s.DB, s.Config.MediaStoragePath, previous)
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"assetId": assetID,
		"url":     services.BuildAssetURL(s.Config.PublicBaseURL, services.BucketReceipts, assetID),
	})
}

func (s *Server) StudentSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req services.FeedbackInput
	if !s.decodeJSON(w, r, &req) {
		return
	}
	hostel, err := services.SubmitFeedback(s.DB, CurrentUserID(r), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, hostel)
}

// StudentCreateComplaint takes the multipart complaint form. Images are
// stored before the complaint row and removed again if it is rejected.
func (s *Server) StudentCreateComplaint(w http.ResponseWriter, r *http.Request) {
	studentID := CurrentUserID(r)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	input := services.ComplaintInput{
		HostelID:      strings.TrimSpace(r.FormValue("hostelId")),
		Description:   r.FormValue("description"),
		ComplaintType: strings.TrimSpace(r.FormValue("complaintType")),
		IsAnonymous:   r.FormValue("isAnonymous") == "true",
	}
	if errs := s.Validator.Struct(input); len(errs) > 0 {
		WriteValidation(w, errs)
		return
	}
	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["images"]
	}
	if len(files) > maxComplaintImages {
		WriteValidation(w, map[string]string{"images": "at most 5 images are allowed"})
		return
	}
	imageIDs := make([]string, 0, len(files))
	cleanup := func() {
		for _, id := range imageIDs {
			_ = services.DeleteAsset(s.DB, s.Config.MediaStoragePath, id)
		}
	}
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			cleanup()
			WriteError(w, http.StatusBadRequest, "Invalid payload")
			return
		}
		assetID, err := services.SaveMediaAsset(s.DB, s.Config.MediaStoragePath, services.BucketComplaints, header.Filename, studentID, file)
		_ = file.Close()
		if err != nil {
			cleanup()
			writeFailure(w, r, err)
			return
		}
		imageIDs = append(imageIDs, assetID)
	}
	complaint, err := services.CreateComplaint(s.DB, studentID, input, imageIDs)
	if err != nil {
		cleanup()
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, complaint)
}

func (s *Server) StudentComplaints(w http.ResponseWriter, r *http.Request) {
	complaints, err := services.ListStudentComplaints(s.DB, CurrentUserID(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]models.Complaint{"items": complaints})
}
