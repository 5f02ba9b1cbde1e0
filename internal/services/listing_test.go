package services

import (
	"math/rand"
	"reflect"
	"strconv"
	"testing"

	"hostelhub-backend-go/internal/models"
)

func sampleHostels() []models.Hostel {
	return []models.Hostel{
		{
			ID: "h1", Name: "Sunrise PG", Address: "12 MG Road", OwnerName: "Ravi",
			HostelType: "boys", StudentsPerRoom: 2, Food: true, Verified: true,
			RentStructure: []models.RentSlab{{StudentsPerRoom: 2, RentPerStudent: 4000}},
			Feedback:      []models.Feedback{{Rating: 4}, {Rating: 5}},
		},
		{
			ID: "h2", Name: "Moonlight Hostel", Address: "Lake View", OwnerName: "Meera",
			HostelType: "girls", StudentsPerRoom: 3, Verified: false,
			RentStructure: []models.RentSlab{{StudentsPerRoom: 3, RentPerStudent: 6000}},
		},
		{
			ID: "h3", Name: "Campus Nest", Address: "Near MG Road", OwnerName: "Sunil",
			HostelType: "Boys", StudentsPerRoom: 4, Food: true, Verified: true,
			RentStructure: []models.RentSlab{{StudentsPerRoom: 4, RentPerStudent: 3500}, {StudentsPerRoom: 2, RentPerStudent: 5200}},
			Feedback:      []models.Feedback{{Rating: 3}},
		},
		{
			ID: "h4", Name: "Green Stay", Address: "Sector 9", OwnerName: "Anil",
			HostelType: "girls", StudentsPerRoom: 1, Verified: true,
		},
	}
}

func ids(hostels []models.Hostel) []string {
	out := make([]string, 0, len(hostels))
	for _, h := range hostels {
		out = append(out, h.ID)
	}
	return out
}

func TestFilterHostelsDefaultIsIdentity(t *testing.T) {
	hostels := sampleHostels()
	got := FilterHostels(hostels, DefaultFilters())
	if !reflect.DeepEqual(got, hostels) {
		t.Fatalf("default filters should keep every hostel, got %v", ids(got))
	}
}

func TestFilterHostelsEmptyInput(t *testing.T) {
	got := FilterHostels(nil, FilterState{Type: "boys", Verified: true, SortByRatings: true})
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", ids(got))
	}
}

func TestFilterHostelsVerifiedNarrows(t *testing.T) {
	f := DefaultFilters()
	f.Verified = true
	for _, h := range FilterHostels(sampleHostels(), f) {
		if !h.Verified {
			t.Fatalf("unverified hostel %s passed verified filter", h.ID)
		}
	}
}

func TestFilterHostelsStudentsPerRoom(t *testing.T) {
	cases := []struct {
		value string
		want  []string
	}{
		{"3", []string{"h2", "h3"}},
		{"2", []string{"h1"}},
		{"1", []string{"h4"}},
		{"Any", []string{"h1", "h2", "h3", "h4"}},
		{"many", []string{}},
	}
	for _, tc := range cases {
		f := DefaultFilters()
		f.StudentsPerRoom = tc.value
		got := ids(FilterHostels(sampleHostels(), f))
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("studentsPerRoom %q: want %v, got %v", tc.value, tc.want, got)
		}
	}
}

func TestFilterHostelsSearchMatchesNameAddressOwner(t *testing.T) {
	cases := map[string][]string{
		"sunrise": {"h1"},
		"mg road": {"h1", "h3"},
		"MEERA":   {"h2"},
		"nowhere": {},
	}
	for term, want := range cases {
		f := DefaultFilters()
		f.SearchName = term
		got := ids(FilterHostels(sampleHostels(), f))
		if !reflect.DeepEqual(got, want) {
			t.Errorf("search %q: want %v, got %v", term, want, got)
		}
	}
}

func TestFilterHostelsTypeIsCaseInsensitive(t *testing.T) {
	f := DefaultFilters()
	f.Type = "BOYS"
	got := ids(FilterHostels(sampleHostels(), f))
	if !reflect.DeepEqual(got, []string{"h1", "h3"}) {
		t.Fatalf("unexpected type filter result %v", got)
	}
}

func TestFilterHostelsRentUsesMinimum(t *testing.T) {
	hostels := sampleHostels()
	f := DefaultFilters()
	f.RentRange = [2]int{3500, 4000}
	got := FilterHostels(hostels, f)
	for _, h := range hostels {
		lowest, ok := MinRent(h)
		in := ok && lowest >= 3500 && lowest <= 4000
		found := false
		for _, g := range got {
			if g.ID == h.ID {
				found = true
			}
		}
		if in != found {
			t.Errorf("hostel %s: min rent %d ok=%v, included=%v", h.ID, lowest, ok, found)
		}
	}
	if !reflect.DeepEqual(ids(got), []string{"h1", "h3"}) {
		t.Fatalf("unexpected rent result %v", ids(got))
	}
}

func TestFilterHostelsFood(t *testing.T) {
	f := DefaultFilters()
	f.Food = true
	got := ids(FilterHostels(sampleHostels(), f))
	if !reflect.DeepEqual(got, []string{"h1", "h3"}) {
		t.Fatalf("unexpected food result %v", got)
	}
}

func TestFilterHostelsSortByRatingsStable(t *testing.T) {
	hostels := sampleHostels()
	hostels = append(hostels, models.Hostel{ID: "h5", Name: "Tie", Feedback: []models.Feedback{{Rating: 3}}})
	f := DefaultFilters()
	f.SortByRatings = true
	got := FilterHostels(hostels, f)
	for i := 1; i < len(got); i++ {
		if AverageRating(got[i-1]) < AverageRating(got[i]) {
			t.Fatalf("not sorted at %d: %v", i, ids(got))
		}
	}
	want := []string{"h1", "h3", "h5", "h2", "h4"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("want %v, got %v", want, ids(got))
	}
	if hostels[0].ID != "h1" || hostels[1].ID != "h2" {
		t.Fatalf("input slice was reordered")
	}
}

func TestFilterHostelsRandomizedNarrowing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	types := []string{"boys", "girls"}
	for round := 0; round < 50; round++ {
		hostels := make([]models.Hostel, 0, 20)
		for i := 0; i < 20; i++ {
			h := models.Hostel{
				ID:              strconv.Itoa(i),
				Name:            "Hostel " + strconv.Itoa(i),
				HostelType:      types[rng.Intn(2)],
				StudentsPerRoom: 1 + rng.Intn(5),
				Verified:        rng.Intn(2) == 0,
				Food:            rng.Intn(2) == 0,
			}
			for j := 0; j < rng.Intn(3); j++ {
				h.RentStructure = append(h.RentStructure, models.RentSlab{StudentsPerRoom: j + 1, RentPerStudent: rng.Intn(10000)})
			}
			for j := 0; j < rng.Intn(4); j++ {
				h.Feedback = append(h.Feedback, models.Feedback{Rating: rng.Intn(6)})
			}
			hostels = append(hostels, h)
		}
		if got := FilterHostels(hostels, DefaultFilters()); len(got) != len(hostels) {
			t.Fatalf("round %d: default filter dropped hostels", round)
		}
		f := DefaultFilters()
		f.Verified = true
		f.StudentsPerRoom = "3"
		f.RentRange = [2]int{1000, 7000}
		f.SortByRatings = true
		got := FilterHostels(hostels, f)
		for i, h := range got {
			lowest, ok := MinRent(h)
			if !h.Verified || h.StudentsPerRoom < 3 || !ok || lowest < 1000 || lowest > 7000 {
				t.Fatalf("round %d: hostel %s should have been filtered", round, h.ID)
			}
			if i > 0 && AverageRating(got[i-1]) < AverageRating(h) {
				t.Fatalf("round %d: ordering violated", round)
			}
		}
	}
}

func TestFilterHostelsScenario(t *testing.T) {
	hostels := []models.Hostel{
		{Name: "Sunrise PG", RentStructure: []models.RentSlab{{StudentsPerRoom: 2, RentPerStudent: 4000}}, Verified: true, HostelType: "boys"},
		{Name: "Moonlight Hostel", RentStructure: []models.RentSlab{{StudentsPerRoom: 3, RentPerStudent: 6000}}, Verified: false, HostelType: "girls"},
	}
	f := DefaultFilters()
	f.Type = "boys"
	f.Verified = true
	f.RentRange = [2]int{0, 5000}
	got := FilterHostels(hostels, f)
	if len(got) != 1 || got[0].Name != "Sunrise PG" {
		t.Fatalf("expected only Sunrise PG, got %+v", got)
	}
}

func TestParseFilterQueryRoundTrip(t *testing.T) {
	f := FilterState{
		SearchName:      "nest",
		Type:            "boys",
		StudentsPerRoom: "3",
		Food:            true,
		Verified:        true,
		RentRange:       [2]int{1000, 5000},
		SortByRatings:   true,
	}
	got := ParseFilterQuery(f.Query())
	if got != f {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, f)
	}
	if def := ParseFilterQuery(DefaultFilters().Query()); def != DefaultFilters() {
		t.Fatalf("default round trip mismatch: %+v", def)
	}
}

func TestFilterQueryOmitsSentinelsInAnyCase(t *testing.T) {
	f := DefaultFilters()
	f.Type = "all"
	f.StudentsPerRoom = "ANY"
	q := f.Query()
	if q.Has("type") || q.Has("studentsPerRoom") {
		t.Fatalf("expected sentinels omitted, got %v", q)
	}
}

func TestAverageRatingEmpty(t *testing.T) {
	if got := AverageRating(models.Hostel{}); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}
