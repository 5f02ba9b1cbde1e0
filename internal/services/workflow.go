package services

import "hostelhub-backend-go/internal/models"

type StudentState string

const (
	StateBrowsing    StudentState = "Browsing"
	StateUnderReview StudentState = "UnderReview"
	StateApproved    StudentState = "Approved"
	StateAdmitted    StudentState = "Admitted"
)

type StudentAction string

const (
	ActionAddToWishlist      StudentAction = "add_to_wishlist"
	ActionRemoveFromWishlist StudentAction = "remove_from_wishlist"
	ActionSubmitWishlist     StudentAction = "submit_wishlist"
	ActionRequestVisit       StudentAction = "request_visit"
	ActionTakeAdmission      StudentAction = "take_admission"
	ActionNotInterested      StudentAction = "not_interested"
	ActionSubmitFeedback     StudentAction = "submit_feedback"
	ActionFileComplaint      StudentAction = "file_complaint"
	ActionUploadReceipt      StudentAction = "upload_receipt"
)

// StudentFlags are the workflow columns the state is derived from.
type StudentFlags struct {
	WishlistSubmitted bool
	WishlistApproved  bool
	AdmittedHostel    *string
}

func FlagsOf(s models.Student) StudentFlags {
	return StudentFlags{
		WishlistSubmitted: s.WishlistSubmitted,
		WishlistApproved:  s.WishlistApproved,
		AdmittedHostel:    s.AdmittedHostel,
	}
}

// StudentStateOf derives the workflow state. Admission wins over approval,
// approval over submission.
func StudentStateOf(flags StudentFlags) StudentState {
	switch {
	case flags.AdmittedHostel != nil && *flags.AdmittedHostel != "":
		return StateAdmitted
	case flags.WishlistApproved:
		return StateApproved
	case flags.WishlistSubmitted:
		return StateUnderReview
	default:
		return StateBrowsing
	}
}

var allowedActions = map[StudentState][]StudentAction{
	StateBrowsing:    {ActionAddToWishlist, ActionRemoveFromWishlist, ActionSubmitWishlist},
	StateUnderReview: {},
	StateApproved:    {ActionRequestVisit, ActionTakeAdmission, ActionNotInterested},
	StateAdmitted:    {ActionSubmitFeedback, ActionFileComplaint, ActionUploadReceipt},
}

func AllowedActions(state StudentState) []StudentAction {
	actions := allowedActions[state]
	out := make([]StudentAction, len(actions))
	copy(out, actions)
	return out
}

func ActionAllowed(state StudentState, action StudentAction) bool {
	for _, candidate := range allowedActions[state] {
		if candidate == action {
			return true
		}
	}
	return false
}

// RequireAction returns a 409 when the student's state does not permit action.
func RequireAction(flags StudentFlags, action StudentAction) error {
	state := StudentStateOf(flags)
	if ActionAllowed(state, action) {
		return nil
	}
	return ErrConflict("Action " + string(action) + " is not available while " + string(state))
}

// CanAddToWishlist reports whether one more entry fits under limit.
func CanAddToWishlist(count, limit int) bool {
	return count < limit
}
