package httpapi

import (
	"net/http"
	"time"

	"hostelhub-backend-go/internal/config"
	"hostelhub-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	DB        *sqlx.DB
	Config    config.Config
	Tokens    services.TokenService
	OTP       services.OTPService
	Mailer    services.Mailer
	Validator *services.FormValidator
	Events    *services.EventHub
}

func NewServer(db *sqlx.DB, cfg config.Config, otpStore services.OTPStore, mailer services.Mailer, events *services.EventHub) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	return &Server{
		DB:     db,
		Config: cfg,
		Tokens: tokens,
		OTP: services.OTPService{
			Store:       otpStore,
			TTL:         time.Duration(cfg.OTPTTLSeconds) * time.Second,
			MaxAttempts: cfg.OTPMaxAttempts,
		},
		Mailer:    mailer,
		Validator: services.NewFormValidator(),
		Events:    events,
	}
}

func (s *Server) checkPermission(roles []string, module, action string) (bool, error) {
	return services.HasPermission(s.DB, roles, module, action)
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register/validate-step", s.ValidateStep)
			auth.Post("/register", s.Register)
			auth.Post("/verify-registration-otp", s.VerifyRegistrationOTP)
			auth.Post("/resend-registration-otp", s.ResendRegistrationOTP)
			auth.Post("/login", s.Login)
			auth.Post("/refresh", s.Refresh)
			auth.Post("/logout", s.Logout)
			auth.Post("/send-email-otp", s.SendEmailOTP)
			auth.Post("/verify-email-otp", s.VerifyEmailOTP)
			auth.Post("/forgot-password", s.ForgotPassword)
			auth.Post("/reset-password", s.ResetPassword)
		})

		api.Get("/hostels", s.PublicHostels)
		api.Get("/hostels/{hostelId}", s.PublicHostel)
		api.Get("/hostels/{hostelId}/photos", s.HostelPhotos)
		api.Get("/media/assets/{assetId}/content", s.MediaContent)
		api.With(WithAuth(s.Tokens)).Get("/media/private/{assetId}/content", s.PrivateMediaContent)

		api.Route("/me", func(me chi.Router) {
			me.Use(WithAuth(s.Tokens))
			me.Get("/", s.Me)
			me.Put("/password", s.ChangePassword)
			me.Post("/ping", s.Ping)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(WithAuth(s.Tokens))

			admin.Group(func(hostels chi.Router) {
				hostels.Use(RequireModule(s.checkPermission, "hostels"))
				hostels.Get("/hostels", s.AdminListHostels)
				hostels.Get("/hostels/{hostelId}", s.AdminGetHostel)
				hostels.Put("/hostels/{hostelId}", s.AdminUpdateHostel)
				hostels.Delete("/hostels/{hostelId}", s.AdminDeleteHostel)
				hostels.Put("/hostels/{hostelId}/verify", s.AdminVerifyHostel)
			})
			admin.Group(func(students chi.Router) {
				students.Use(RequireModule(s.checkPermission, "students"))
				students.Get("/students", s.AdminListStudents)
				students.Get("/students/{studentId}", s.AdminGetStudent)
				students.Put("/students/{studentId}", s.AdminUpdateStudent)
				students.Put("/students/{studentId}/cashback", s.AdminApplyCashback)
			})
			admin.Group(func(owners chi.Router) {
				owners.Use(RequireModule(s.checkPermission, "owners"))
				owners.Get("/owners", s.AdminListOwners)
				owners.Get("/owners/{ownerId}", s.AdminGetOwner)
				owners.Put("/owners/{ownerId}", s.AdminUpdateOwner)
			})
			admin.Group(func(wishlist chi.Router) {
				wishlist.Use(RequirePermission(s.checkPermission, "wishlist", services.ActionEdit))
				wishlist.Post("/approve-wishlist", s.AdminApproveWishlist)
				wishlist.Post("/wishlist/remove", s.AdminRemoveWishlist)
			})

			admin.Group(func(root chi.Router) {
				root.Use(RequireRole("ADMIN"))
				root.Get("/dashboard/history", s.DashboardHistory)

				root.Route("/users", func(users chi.Router) {
					users.Get("/", s.ListUsers)
					users.Post("/{userId}/roles", s.AssignRole)
					users.Delete("/{userId}/roles/{role}", s.RemoveRole)
					users.Put("/{userId}/status", s.UpdateUserStatus)
				})

				root.Route("/groups", func(groups chi.Router) {
					groups.Get("/", s.AdminListGroups)
					groups.Post("/", s.AdminCreateGroup)
					groups.Get("/{groupId}", s.AdminGetGroup)
					groups.Put("/{groupId}", s.AdminUpdateGroup)
					groups.Delete("/{groupId}", s.AdminDeleteGroup)
				})
				root.Get("/modules", s.AdminListModules)
				root.Get("/getroles", s.AdminRoleNames)
				root.Get("/roles", s.AdminRoles)
				root.Get("/permissions/{role}", s.AdminRolePermissions)
				root.Post("/assign-group-to-role", s.AdminAssignGroupToRole)
				root.Post("/remove-permission-from-role", s.AdminRemoveGroupFromRole)
				root.Put("/update-role-permissions", s.AdminUpdateRolePermissions)
			})
		})

		api.Route("/students", func(students chi.Router) {
			students.Use(WithAuth(s.Tokens))
			students.Use(RequireRole("STUDENT"))
			students.Get("/profile", s.StudentProfile)
			students.Get("/wishlist", s.StudentWishlist)
			students.Get("/wishlist/count", s.StudentWishlistCount)
			students.Post("/wishlist/add", s.StudentWishlistAdd)
			students.Post("/wishlist/remove", s.StudentWishlistRemove)
			students.Post("/wishlist/submit", s.StudentWishlistSubmit)
			students.Post("/request-visit", s.StudentRequestVisit)
			students.Get("/visits", s.StudentVisits)
			students.Post("/take-admission", s.StudentTakeAdmission)
			students.Post("/not-interested", s.StudentNotInterested)
			students.Post("/upload-receipt", s.StudentUploadReceipt)
			students.Post("/submit-feedback", s.StudentSubmitFeedback)
			students.Post("/complaints", s.StudentCreateComplaint)
			students.Get("/complaints", s.StudentComplaints)
		})

		api.Route("/owners", func(owners chi.Router) {
			owners.Use(WithAuth(s.Tokens))
			owners.Use(RequireRole("OWNER"))
			owners.Use(s.requireActiveOwner)
			owners.Get("/profile", s.OwnerProfile)
			owners.Get("/hostels", s.OwnerHostels)
			owners.Post("/hostels", s.OwnerCreateHostel)
			owners.Put("/hostels/{hostelId}", s.OwnerUpdateHostel)
			owners.Post("/hostels/{hostelId}/photos", s.OwnerUploadPhoto)
			owners.Get("/visits", s.OwnerVisits)
			owners.Put("/visits/{visitId}", s.OwnerUpdateVisit)
			owners.Get("/complaints", s.OwnerComplaints)
			owners.Put("/complaints/{complaintId}", s.OwnerUpdateComplaint)
			owners.Get("/tasks", s.OwnerTasks)
			owners.Post("/tasks", s.OwnerCreateTask)
			owners.Put("/tasks/{taskId}", s.OwnerUpdateTask)
		})
	})

	r.Get("/ws/events", s.EventsSocket)
	return r
}
