package availability

import (
	"sort"
	"strings"
	"time"

	"gomoldova-backend/internal/models"
)

// Result отфильтрованная и отсортированная выдача
type Result struct {
	Trips []models.Trip
	// IsShowingAllTrips выставляется, когда по текстовому запросу ничего не нашлось
	// и вместо пустой страницы отдается весь список
	IsShowingAllTrips bool
}

// AvailableSeats вместимость минус принятые заявки. Значение не кэшируется:
// каждый вызов считает заново по переданным бронированиям.
func AvailableSeats(t models.Trip) int {
	accepted := 0
	for _, b := range t.Bookings {
		if b.Status == models.BookingStatusAccepted {
			accepted++
		}
	}
	return t.Seats - accepted
}

// Search применяет фильтры и сортировку к уже загруженным поездкам. Входной срез не изменяется.
func Search(trips []models.Trip, f Filters) Result {
	f = f.Normalize()

	matched := Filter(trips, f)
	if len(matched) == 0 && f.HasSearchText() {
		return Result{Trips: Sort(trips, f.SortBy), IsShowingAllTrips: true}
	}

	return Result{Trips: Sort(matched, f.SortBy)}
}

// Filter оставляет поездки, прошедшие все заданные предикаты
func Filter(trips []models.Trip, f Filters) []models.Trip {
	f = f.Normalize()

	out := make([]models.Trip, 0, len(trips))
	for _, t := range trips {
		if matches(t, f) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t models.Trip, f Filters) bool {
	if f.FromCity != "" && !containsFold(t.FromCity, f.FromCity) {
		return false
	}
	if f.ToCity != "" && !containsFold(t.ToCity, f.ToCity) {
		return false
	}
	if f.Date != "" && strings.TrimSpace(t.DepartureDate) != f.Date {
		return false
	}

	if f.PriceRange != nil && (t.Price < f.PriceRange.Min || t.Price > f.PriceRange.Max) {
		return false
	}

	if f.VehicleType != VehicleAll && string(t.VehicleType()) != string(f.VehicleType) {
		return false
	}

	if f.DepartureTime != TimeAll {
		hour, ok := departureHour(t.DepartureTime)
		if !ok || bucketOf(hour) != f.DepartureTime {
			return false
		}
	}

	if f.MinSeats > 0 && AvailableSeats(t) < f.MinSeats {
		return false
	}

	// Поставщик без рейтинга считается как 0
	if f.MinRating > 0 {
		rating := 0.0
		if r := t.ProviderRating(); r != nil {
			rating = *r
		}
		if rating < f.MinRating {
			return false
		}
	}

	if f.Preferences.Smoking && !t.Preferences.Smoking {
		return false
	}
	if f.Preferences.Music && !t.Preferences.Music {
		return false
	}
	if f.Preferences.Pets && !t.Preferences.Pets {
		return false
	}

	return true
}

// Sort возвращает отсортированную копию. Сортировка стабильная: равные ключи сохраняют исходный порядок.
func Sort(trips []models.Trip, order SortOrder) []models.Trip {
	out := make([]models.Trip, len(trips))
	copy(out, trips)

	switch order {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortSeatsAsc:
		sort.SliceStable(out, func(i, j int) bool { return AvailableSeats(out[i]) < AvailableSeats(out[j]) })
	case SortSeatsDesc:
		sort.SliceStable(out, func(i, j int) bool { return AvailableSeats(out[i]) > AvailableSeats(out[j]) })
	case SortDateDesc:
		sortByDeparture(out, true)
	default:
		sortByDeparture(out, false)
	}

	return out
}

// sortByDeparture поездки с нечитаемой датой всегда идут в конце
func sortByDeparture(trips []models.Trip, desc bool) {
	keyed := make([]keyedTrip, len(trips))
	for i, t := range trips {
		keyed[i] = keyedTrip{trip: t, key: newDepartureKey(t)}
	}

	sort.SliceStable(keyed, func(i, j int) bool {
		ki, kj := keyed[i].key, keyed[j].key
		if ki.ok != kj.ok {
			return ki.ok
		}
		if !ki.ok {
			return false
		}
		if desc {
			return kj.at.Before(ki.at)
		}
		return ki.at.Before(kj.at)
	})

	for i := range keyed {
		trips[i] = keyed[i].trip
	}
}

type keyedTrip struct {
	trip models.Trip
	key  departureKey
}

type departureKey struct {
	at time.Time
	ok bool
}

// newDepartureKey дата и время разбираются в UTC: все поездки в одном часовом поясе,
// поэтому порядок от выбора зоны не зависит
func newDepartureKey(t models.Trip) departureKey {
	date := strings.TrimSpace(t.DepartureDate)
	clock := strings.TrimSpace(t.DepartureTime)
	for _, layout := range []string{models.TimeLayout, "15:04:05"} {
		if at, err := time.Parse(models.DateLayout+" "+layout, date+" "+clock); err == nil {
			return departureKey{at: at, ok: true}
		}
	}
	return departureKey{}
}

func departureHour(clock string) (int, bool) {
	clock = strings.TrimSpace(clock)
	for _, layout := range []string{models.TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return t.Hour(), true
		}
	}
	return 0, false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
