package httpapi

import (
	"net/http"

	"hostelhub-backend-go/internal/models"
	"hostelhub-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// requireActiveOwner blocks owners an admin has set inactive.
func (s *Server) requireActiveOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := services.RequireActiveOwner(s.DB, CurrentUserID(r)); err != nil {
			writeFailure(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) OwnerProfile(w http.ResponseWriter, r *http.Request) {
	owner, err := services.GetOwner(s.DB, CurrentUserID(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, owner)
}

func (s *Server) OwnerHostels(w http.ResponseWriter, r *http.Request) {
	hostels, err := services.ListHostels(s.DB, services.HostelScope{OwnerID: CurrentUserID(r)})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if r.URL.Query().Get("photos") == "true" {
		services.AttachPhotos(r.Context(), hostels, services.DBPhotoLoader(s.DB, s.Config.MediaStoragePath))
	}
	WriteJSON(w, http.StatusOK, HostelListResponse{Items: hostels, Total: len(hostels)})
}

func (s *Server) OwnerCreateHostel(w http.ResponseWriter, r *http.Request) {
	var req services.HostelInput
	if !s.decodeJSON(w, r, &req) {
		return
	}
	hostel, err := services.CreateHostel(s.DB, CurrentUserID(r), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, hostel)
}

func (s *Server) OwnerUpdateHostel(w http.ResponseWriter, r *http.Request) {
	var req services.HostelInput
	if !s.decodeJSON(w, r, &req) {
		return
	}
	hostel, err := services.UpdateHostel(s.DB, chi.URLParam(r, "hostelId"), CurrentUserID(r), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, hostel)
}

func (s *Server) OwnerUploadPhoto(w http.ResponseWriter, r *http.Request) {
	ownerID := CurrentUserID(r)
	hostelID := chi.URLParam(r, "hostelId")
	owned, err := services.HostelOwnedBy(s.DB, hostelID, ownerID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if !owned {
		WriteError(w, http.StatusNotFound, "Hostel not found")
		return
	}
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "File is empty")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "File is empty")
		return
	}
	defer file.Close()
	assetID, err := services.SaveMediaAsset(s.DB, s.Config.MediaStoragePath, services.BucketHostels, header.Filename, ownerID, file)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := services.AddHostelImage(s.DB, hostelID, assetID); err != nil {
		_ = services.DeleteAsset(s.DB, s.Config.MediaStoragePath, assetID)
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{
		"assetId": assetID,
		"url":     services.BuildAssetURL(s.Config.PublicBaseURL, services.BucketHostels, assetID),
	})
}

func (s *Server) OwnerVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := services.ListOwnerVisits(s.DB, CurrentUserID(r), r.URL.Query().Get("status"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]models.Visit{"items": visits})
}

func (s *Server) OwnerUpdateVisit(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	visit, err := services.UpdateVisitStatus(s.DB, CurrentUserID(r), chi.URLParam(r, "visitId"), req.Status)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if s.Events != nil {
		s.Events.PublishToUser(visit.StudentID, services.TopicVisitsUpdated, visit)
	}
	WriteJSON(w, http.StatusOK, visit)
}

func (s *Server) OwnerComplaints(w http.ResponseWriter, r *http.Request) {
	complaints, err := services.ListOwnerComplaints(s.DB, CurrentUserID(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]models.Complaint{"items": complaints})
}

func (s *Server) OwnerUpdateComplaint(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	complaint, err := services.UpdateComplaintStatus(s.DB, CurrentUserID(r), chi.URLParam(r, "complaintId"), req.Status)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, complaint)
}

func (s *Server) OwnerTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := services.ListOwnerTasks(s.DB, CurrentUserID(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]models.Task{"items": tasks})
}

func (s *Server) OwnerCreateTask(w http.ResponseWriter, r *http.Request) {
	var req services.TaskInput
	if !s.decodeJSON(w, r, &req) {
		return
	}
	task, err := services.CreateTask(s.DB, CurrentUserID(r), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, task)
}

func (s *Server) OwnerUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req services.TaskUpdate
	if !s.decodeJSON(w, r, &req) {
		return
	}
	task, err := services.UpdateTask(s.DB, CurrentUserID(r), chi.URLParam(r, "taskId"), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, task)
}
