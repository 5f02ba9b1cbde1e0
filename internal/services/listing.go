package services

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"hostelhub-backend-go/internal/models"
)

const (
	AnyHostelType      = "All"
	AnyStudentsPerRoom = "Any"
	// OpenEndedRoomSize selects every hostel with at least that many
	// students per room.
	OpenEndedRoomSize = "3"
	RentFloor         = 0
	RentCeiling       = 10000
)

// FilterState is the set of listing filters a visitor can apply.
type FilterState struct {
	SearchName      string `json:"searchName"`
	Type            string `json:"type"`
	StudentsPerRoom string `json:"studentsPerRoom"`
	Food            bool   `json:"food"`
	Verified        bool   `json:"verified"`
	RentRange       [2]int `json:"rentRange"`
	SortByRatings   bool   `json:"sortByRatings"`
}

func DefaultFilters() FilterState {
	return FilterState{
		Type:            AnyHostelType,
		StudentsPerRoom: AnyStudentsPerRoom,
		RentRange:       [2]int{RentFloor, RentCeiling},
	}
}

func (f FilterState) rentActive() bool {
	return f.RentRange != [2]int{RentFloor, RentCeiling}
}

// FilterHostels narrows hostels by search, type, room size, food, verified
// and rent, in that order, and optionally sorts by average rating. The input
// slice is never modified.
func FilterHostels(hostels []models.Hostel, f FilterState) []models.Hostel {
	result := make([]models.Hostel, 0, len(hostels))
	for _, hostel := range hostels {
		if matchesFilters(hostel, f) {
			result = append(result, hostel)
		}
	}
	if f.SortByRatings {
		SortByRating(result)
	}
	return result
}

func matchesFilters(h models.Hostel, f FilterState) bool {
	if term := strings.ToLower(strings.TrimSpace(f.SearchName)); term != "" {
		if !strings.Contains(strings.ToLower(h.Name), term) &&
			!strings.Contains(strings.ToLower(h.Address), term) &&
			!strings.Contains(strings.ToLower(h.OwnerName), term) {
			return false
		}
	}
	if f.Type != "" && !strings.EqualFold(f.Type, AnyHostelType) {
		if !strings.EqualFold(h.HostelType, f.Type) {
			return false
		}
	}
	if f.StudentsPerRoom != "" && !strings.EqualFold(f.StudentsPerRoom, AnyStudentsPerRoom) {
		if !matchesRoomSize(h.StudentsPerRoom, f.StudentsPerRoom) {
			return false
		}
	}
	if f.Food && !h.Food {
		return false
	}
	if f.Verified && !h.Verified {
		return false
	}
	if f.rentActive() {
		lowest, ok := MinRent(h)
		if !ok || lowest < f.RentRange[0] || lowest > f.RentRange[1] {
			return false
		}
	}
	return true
}

func matchesRoomSize(actual int, wanted string) bool {
	if wanted == OpenEndedRoomSize {
		threshold, _ := strconv.Atoi(OpenEndedRoomSize)
		return actual >= threshold
	}
	value, err := strconv.Atoi(strings.TrimSpace(wanted))
	if err != nil {
		return false
	}
	return actual == value
}

// MinRent returns the cheapest rent per student in the hostel's rent
// structure. ok is false when the structure is empty.
func MinRent(h models.Hostel) (int, bool) {
	if len(h.RentStructure) == 0 {
		return 0, false
	}
	lowest := h.RentStructure[0].RentPerStudent
	for _, slab := range h.RentStructure[1:] {
		if slab.RentPerStudent < lowest {
			lowest = slab.RentPerStudent
		}
	}
	return lowest, true
}

// AverageRating is sum(rating)/count, or 0 without feedback.
func AverageRating(h models.Hostel) float64 {
	if len(h.Feedback) == 0 {
		return 0
	}
	total := 0
	for _, fb := range h.Feedback {
		total += fb.Rating
	}
	return float64(total) / float64(len(h.Feedback))
}

// SortByRating orders hostels in place by descending average rating, keeping
// the relative order of ties.
func SortByRating(hostels []models.Hostel) {
	slices.SortStableFunc(hostels, func(a, b models.Hostel) int {
		ra, rb := AverageRating(a), AverageRating(b)
		switch {
		case ra > rb:
			return -1
		case ra < rb:
			return 1
		default:
			return 0
		}
	})
}

// ParseFilterQuery builds a FilterState from listing query parameters.
// Unknown or malformed values fall back to the defaults.
func ParseFilterQuery(q url.Values) FilterState {
	f := DefaultFilters()
	f.SearchName = strings.TrimSpace(q.Get("search"))
	if value := strings.TrimSpace(q.Get("type")); value != "" {
		f.Type = value
	}
	if value := strings.TrimSpace(q.Get("studentsPerRoom")); value != "" {
		f.StudentsPerRoom = value
	}
	f.Food = parseBool(q.Get("food"))
	f.Verified = parseBool(q.Get("verified"))
	f.SortByRatings = parseBool(q.Get("sortByRatings"))
	if value, err := strconv.Atoi(q.Get("minRent")); err == nil && value >= 0 {
		f.RentRange[0] = value
	}
	if value, err := strconv.Atoi(q.Get("maxRent")); err == nil && value >= 0 {
		f.RentRange[1] = value
	}
	return f
}

// Query renders the filter state back into query parameters; defaults are
// omitted.
func (f FilterState) Query() url.Values {
	q := url.Values{}
	if f.SearchName != "" {
		q.Set("search", f.SearchName)
	}
	if f.Type != "" && !strings.EqualFold(f.Type, AnyHostelType) {
		q.Set("type", f.Type)
	}
	if f.StudentsPerRoom != "" && !strings.EqualFold(f.StudentsPerRoom, AnyStudentsPerRoom) {
		q.Set("studentsPerRoom", f.StudentsPerRoom)
	}
	if f.Food {
		q.Set("food", "true")
	}
	if f.Verified {
		q.Set("verified", "true")
	}
	if f.SortByRatings {
		q.Set("sortByRatings", "true")
	}
	if f.rentActive() {
		q.Set("minRent", strconv.Itoa(f.RentRange[0]))
		q.Set("maxRent", strconv.Itoa(f.RentRange[1]))
	}
	return q
}

func parseBool(raw string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && value
}
