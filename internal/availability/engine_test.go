package availability

import (
	"testing"

	"gomoldova-backend/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func floatPtr(v float64) *float64 { return &v }

func carTrip(id uint, from, to, date, clock string, seats int, price float64) models.Trip {
	return models.Trip{
		ID:            id,
		FromCity:      from,
		ToCity:        to,
		DepartureDate: date,
		DepartureTime: clock,
		Seats:         seats,
		Price:         price,
		DriverID:      uintPtr(100 + id),
		Status:        models.TripStatusScheduled,
	}
}

func busTrip(id uint, from, to, date, clock string, seats int, price float64) models.Trip {
	t := carTrip(id, from, to, date, clock, seats, price)
	t.DriverID = nil
	t.CompanyID = uintPtr(200 + id)
	t.Company = &models.Company{ID: 200 + id, OwnerID: 300 + id, Name: "Bus Co", Status: models.CompanyStatusApproved}
	return t
}

func withBookings(t models.Trip, statuses ...models.BookingStatus) models.Trip {
	for i, s := range statuses {
		t.Bookings = append(t.Bookings, models.Booking{ID: uint(i + 1), TripID: t.ID, UserID: uint(500 + i), Status: s})
	}
	return t
}

func ids(trips []models.Trip) []uint {
	out := make([]uint, len(trips))
	for i, t := range trips {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAvailableSeats(t *testing.T) {
	trip := withBookings(carTrip(1, "Chișinău", "Bălți", "2026-11-01", "08:00", 3, 100),
		models.BookingStatusAccepted, models.BookingStatusPending, models.BookingStatusRejected)

	if got := AvailableSeats(trip); got != 2 {
		t.Fatalf("AvailableSeats = %d, want 2", got)
	}
}

func TestAvailableSeatsIsRecomputed(t *testing.T) {
	trip := withBookings(carTrip(1, "A", "B", "2026-11-01", "08:00", 2, 100), models.BookingStatusAccepted)
	if got := AvailableSeats(trip); got != 1 {
		t.Fatalf("before: got %d, want 1", got)
	}

	trip.Bookings = append(trip.Bookings, models.Booking{ID: 9, Status: models.BookingStatusAccepted})
	if got := AvailableSeats(trip); got != 0 {
		t.Fatalf("after accept: got %d, want 0", got)
	}

	trip.Bookings[0].Status = models.BookingStatusCancelled
	if got := AvailableSeats(trip); got != 1 {
		t.Fatalf("after cancel: got %d, want 1", got)
	}
}

func TestAvailableSeatsCanGoNegative(t *testing.T) {
	trip := withBookings(carTrip(1, "A", "B", "2026-11-01", "08:00", 1, 100),
		models.BookingStatusAccepted, models.BookingStatusAccepted)
	if got := AvailableSeats(trip); got != -1 {
		t.Fatalf("got %d, want -1", got)
	}
}

func TestSearchFiltersByCitySubstringCaseInsensitive(t *testing.T) {
	trips := []models.Trip{
		carTrip(1, "Chisinau", "Balti", "2026-11-01", "08:00", 3, 100),
		carTrip(2, "Cahul", "Chisinau", "2026-11-01", "09:00", 3, 100),
		carTrip(3, "Orhei", "Soroca", "2026-11-01", "10:00", 3, 100),
	}

	res := Search(trips, Filters{FromCity: "chIS"})
	if res.IsShowingAllTrips {
		t.Fatal("unexpected fallback")
	}
	if !equalIDs(ids(res.Trips), []uint{1}) {
		t.Fatalf("got %v, want [1]", ids(res.Trips))
	}

	res = Search(trips, Filters{ToCity: "SINAU"})
	if !equalIDs(ids(res.Trips), []uint{2}) {
		t.Fatalf("got %v, want [2]", ids(res.Trips))
	}
}

func TestSearchDateExactMatch(t *testing.T) {
	trips := []models.Trip{
		carTrip(1, "A", "B", "2026-11-01", "08:00", 3, 100),
		carTrip(2, "A", "B", "2026-11-02", "08:00", 3, 100),
	}
	res := Search(trips, Filters{Date: "2026-11-02"})
	if !equalIDs(ids(res.Trips), []uint{2}) {
		t.Fatalf("got %v, want [2]", ids(res.Trips))
	}
}

func TestSearchFallbackWhenTextFilterMatchesNothing(t *testing.T) {
	trips := []models.Trip{
		carTrip(1, "Chisinau", "Balti", "2026-11-01", "08:00", 3, 100),
		carTrip(2, "Cahul", "Orhei", "2026-11-02", "09:00", 3, 100),
	}

	res := Search(trips, Filters{FromCity: "Xyz"})
	if !res.IsShowingAllTrips {
		t.Fatal("expected IsShowingAllTrips")
	}
	if len(res.Trips) != len(trips) {
		t.Fatalf("got %d trips, want %d", len(res.Trips), len(trips))
	}
}

func TestSearchNoFallbackWithoutTextFilter(t *testing.T) {
	trips := []models.Trip{
		carTrip(1, "Chisinau", "Balti", "2026-11-01", "08:00", 3, 100),
	}

	res := Search(trips, Filters{MinSeats: 5})
	if res.IsShowingAllTrips {
		t.Fatal("fallback must not trigger without text filters")
	}
	if len(res.Trips) != 0 {
		t.Fatalf("got %v, want empty", ids(res.Trips))
	}
}

func TestSearchPriceRangeInclusive(t *testing.T) {
	trips := []models.Trip{
		carTrip(1, "A", "B", "2026-11-01", "08:00", 3, 50),
		carTrip(2, "A", "B", "2026-11-01", "08:00", 3, 100),
		carTrip(3, "A", "B", "2026-11-01", "08:00", 3, 150),
		carTrip(4, "A", "B", "2026-11-01", "08:00", 3, 151),
	}
	res := Search(trips, Filters{PriceRange: &PriceRange{Min: 50, Max: 150}})
	if !equalIDs(ids(res.Trips), []uint{1, 2, 3}) {
		t.Fatalf("got %v", ids(res.Trips))
	}
}

func TestSearchVehicleType(t *testing.T) {
	trips := []models.Trip{
		carTrip(1, "A", "B", "2026-11-01", "08:00", 3, 100),
		busTrip(2, "A", "B", "2026-11-01", "09:00", 40, 80),
	}

	if got := ids(Search(trips, Filters{VehicleType: VehicleBus}).Trips); !equalIDs(got, []uint{2}) {
		t.Fatalf("bus: got %v", got)
	}
	if got := ids(Search(trips, Filters{VehicleType: VehicleCar}).Trips); !equalIDs(got, []uint{1}) {
		t.Fatalf("car: got %v", got)
	}
	if got := ids(Search(trips, Filters{VehicleType: VehicleAll}).Trips); len(got) != 2 {
		t.Fatalf("all: got %v", got)
	}
}

func TestSearchDepartureTimeBuckets(t *testing.T) {
	trips := []models.Trip{
		carTrip(1, "A", "B", "2026-11-01", "04:59", 3, 100),
		carTrip(2, "A", "B", "2026-11-01", "05:00", 3, 100),
		carTrip(3, "A", "B", "2026-11-01", "11:59", 3, 100),
		carTrip(4, "A", "B", "2026-11-01", "12:00", 3, 100),
		carTrip(5, "A", "B", "2026-11-01", "17:00", 3, 100),
		carTrip(6, "A", "B", "2026-11-01", "22:00", 3, 100),
		carTrip(7, "A", "B", "2026-11-01", "00:30", 3, 100),
		carTrip(8, "A", "B", "2026-11-01", "16:59:00", 3, 100),
	}

	cases := []struct {
		bucket TimeOfDay
		want   []uint
	}{
		{TimeMorning, []uint{2, 3}},
		{TimeAfternoon, []uint{4, 8}},
		{TimeEvening, []uint{5}},
		{TimeNight, []uint{7, 1, 6}},
	}

	for _, tc := range cases {
		t.Run(string(tc.bucket), func(t *testing.T) {
			got := ids(Search(trips, Filters{DepartureTime: tc.bucket}).Trips)
			if !equalIDs(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSearchMinSeatsUsesAvailableSeats(t *testing.T) {
	trips := []models.Trip{
		withBookings(carTrip(1, "A", "B", "2026-11-01", "08:00", 3, 100), models.BookingStatusAccepted, models.BookingStatusAccepted),
		withBookings(carTrip(2, "A", "B", "2026-11-01", "09:00", 3, 100), models.BookingStatusPending, models.BookingStatusPending),
	}
	got := ids(Search(trips, Filters{MinSeats: 2}).Trips)
	if !equalIDs(got, []uint{2}) {
		t.Fatalf("got %v, want [2]", got)
	}
}

func TestSearchFullTripsListedWithoutMinSeats(t *testing.T) {
	trips := []models.Trip{
		withBookings(carTrip(1, "A", "B", "2026-11-01", "08:00", 1, 100), models.BookingStatusAccepted),
	}
	if got := Search(trips, Filters{}).Trips; len(got) != 1 {
		t.Fatalf("full trip should be listed, got %v", ids(got))
	}
}

func TestSearchMinRating(t *testing.T) {
	rated := carTrip(1, "A", "B", "2026-11-01", "08:00", 3, 100)
	rated.Driver = &models.User{ID: 101, Rating: floatPtr(4.5)}

	low := carTrip(2, "A", "B", "2026-11-01", "09:00", 3, 100)
	low.Driver = &models.User{ID: 102, Rating: floatPtr(3.9)}

	unrated := carTrip(3, "A", "B", "2026-11-01", "10:00", 3, 100)
	unrated.Driver = &models.User{ID: 103}

	trips := []models.Trip{rated, low, unrated}

	if got := ids(Search(trips, Filters{MinRating: 4}).Trips); !equalIDs(got, []uint{1}) {
		t.Fatalf("minRating 4: got %v, want [1]", got)
	}
	if got := ids(Search(trips, Filters{MinRating: 0}).Trips); len(got) != 3 {
		t.Fatalf("minRating 0 must not filter, got %v", got)
	}
}

func TestSearchPreferencesRequireAllSetFlags(t *testing.T) {
	a := carTrip(1, "A", "B", "2026-11-01", "08:00", 3, 100)
	a.Preferences = models.TripPreferences{Music: true, Pets: true}
	b := carTrip(2, "A", "B", "2026-11-01", "09:00", 3, 100)
	b.Preferences = models.TripPreferences{Music: true}
	c := carTrip(3, "A", "B", "2026-11-01", "10:00", 3, 100)

	trips := []models.Trip{a, b, c}

	if got := ids(Search(trips, Filters{Preferences: Preferences{Music: true}}).Trips); !equalIDs(got, []uint{1, 2}) {
		t.Fatalf("music: got %v", got)
	}
	if got := ids(Search(trips, Filters{Preferences: Preferences{Music: true, Pets: true}}).Trips); !equalIDs(got, []uint{1}) {
		t.Fatalf("music+pets: got %v", got)
	}
}

func TestFilterOrderIndependent(t *testing.T) {
	trips := []models.Trip{
		busTrip(1, "Chisinau", "Balti", "2026-11-01", "08:00", 40, 90),
		carTrip(2, "Chisinau", "Balti", "2026-11-01", "13:00", 3, 120),
		carTrip(3, "Chisinau", "Cahul", "2026-11-01", "09:00", 3, 80),
		busTrip(4, "Orhei", "Balti", "2026-11-01", "10:00", 40, 70),
	}

	all := Filters{FromCity: "chisinau", VehicleType: VehicleBus, DepartureTime: TimeMorning, PriceRange: &PriceRange{Min: 0, Max: 100}}
	oneShot := ids(Filter(trips, all))

	staged := Filter(trips, Filters{PriceRange: all.PriceRange})
	staged = Filter(staged, Filters{DepartureTime: all.DepartureTime})
	staged = Filter(staged, Filters{VehicleType: all.VehicleType})
	staged = Filter(staged, Filters{FromCity: all.FromCity})

	if !equalIDs(oneShot, ids(staged)) {
		t.Fatalf("one-shot %v != staged %v", oneShot, ids(staged))
	}
	if !equalIDs(oneShot, []uint{1}) {
		t.Fatalf("got %v, want [1]", oneShot)
	}
}

func TestSortByDate(t *testing.T) {
	trips := []models.Trip{
		carTrip(1, "A", "B", "2026-11-02", "08:00", 3, 100),
		carTrip(2, "A", "B", "2026-11-01", "18:00", 3, 100),
		carTrip(3, "A", "B", "bad-date", "08:00", 3, 100),
		carTrip(4, "A", "B", "2026-11-01", "07:30", 3, 100),
	}

	if got := ids(Search(trips, Filters{SortBy: SortDateAsc}).Trips); !equalIDs(got, []uint{4, 2, 1, 3}) {
		t.Fatalf("date_asc: got %v", got)
	}
	if got := ids(Search(trips, Filters{SortBy: SortDateDesc}).Trips); !equalIDs(got, []uint{1, 2, 4, 3}) {
		t.Fatalf("date_desc: got %v", got)
	}
	if got := ids(Search(trips, Filters{}).Trips); !equalIDs(got, []uint{4, 2, 1, 3}) {
		t.Fatalf("default sort: got %v", got)
	}
}

func TestSortByPrice(t *testing.T) {
	trips := []models.Trip{
		carTrip(1, "A", "B", "2026-11-01", "08:00", 3, 200),
		carTrip(2, "A", "B", "2026-11-01", "08:00", 3, 50),
		carTrip(3, "A", "B", "2026-11-01", "08:00", 3, 120),
	}
	if got := ids(Sort(trips, SortPriceAsc)); !equalIDs(got, []uint{2, 3, 1}) {
		t.Fatalf("price_asc: got %v", got)
	}
	if got := ids(Sort(trips, SortPriceDesc)); !equalIDs(got, []uint{1, 3, 2}) {
		t.Fatalf("price_desc: got %v", got)
	}
}

func TestSortSeatsDescIsReverseOfAsc(t *testing.T) {
	trips := []models.Trip{
		withBookings(carTrip(1, "A", "B", "2026-11-01", "08:00", 4, 100), models.BookingStatusAccepted),
		carTrip(2, "A", "B", "2026-11-01", "08:00", 1, 100),
		busTrip(3, "A", "B", "2026-11-01", "08:00", 40, 100),
		withBookings(carTrip(4, "A", "B", "2026-11-01", "08:00", 2, 100), models.BookingStatusAccepted, models.BookingStatusAccepted),
	}

	asc := ids(Sort(trips, SortSeatsAsc))
	desc := ids(Sort(trips, SortSeatsDesc))

	if !equalIDs(asc, []uint{4, 2, 1, 3}) {
		t.Fatalf("seats_asc: got %v", asc)
	}
	for i := range asc {
		if asc[i] != desc[len(desc)-1-i] {
			t.Fatalf("desc %v is not the reverse of asc %v", desc, asc)
		}
	}
}

func TestSortIsStableForTies(t *testing.T) {
	trips := []models.Trip{
		carTrip(1, "A", "B", "2026-11-01", "08:00", 3, 100),
		carTrip(2, "A", "B", "2026-11-01", "08:00", 3, 100),
		carTrip(3, "A", "B", "2026-11-01", "08:00", 3, 100),
	}
	for _, order := range []SortOrder{SortDateAsc, SortDateDesc, SortPriceAsc, SortPriceDesc, SortSeatsAsc, SortSeatsDesc} {
		if got := ids(Sort(trips, order)); !equalIDs(got, []uint{1, 2, 3}) {
			t.Fatalf("%s: ties reordered: %v", order, got)
		}
	}
}

func TestSearchDoesNotMutateInput(t *testing.T) {
	trips := []models.Trip{
		carTrip(1, "A", "B", "2026-11-01", "08:00", 3, 300),
		carTrip(2, "A", "B", "2026-11-01", "08:00", 3, 100),
	}
	_ = Search(trips, Filters{SortBy: SortPriceAsc})
	if !equalIDs(ids(trips), []uint{1, 2}) {
		t.Fatalf("input mutated: %v", ids(trips))
	}
}

func TestFiltersValidate(t *testing.T) {
	cases := []struct {
		name    string
		f       Filters
		wantErr bool
	}{
		{"empty", Filters{}, false},
		{"full", Filters{VehicleType: VehicleBus, DepartureTime: TimeNight, SortBy: SortSeatsDesc, PriceRange: &PriceRange{Min: 1, Max: 2}}, false},
		{"bad vehicle", Filters{VehicleType: "plane"}, true},
		{"bad time", Filters{DepartureTime: "noon"}, true},
		{"bad sort", Filters{SortBy: "rating"}, true},
		{"inverted price", Filters{PriceRange: &PriceRange{Min: 10, Max: 1}}, true},
		{"negative seats", Filters{MinSeats: -1}, true},
		{"negative rating", Filters{MinRating: -0.5}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.f.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
