package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/iliyamo/artist-map-tracker/internal/config"
	"github.com/iliyamo/artist-map-tracker/internal/database"
	"github.com/iliyamo/artist-map-tracker/internal/lib/logger/sl"
	"github.com/iliyamo/artist-map-tracker/internal/model"
	"github.com/iliyamo/artist-map-tracker/internal/repository"
)

// seedPassword is the password of every seeded account.
const seedPassword = "Password@123"

type citySeed struct {
	City, State, Country string
	Lat, Lng             float64
}

var citySeeds = []citySeed{
	{"Bangalore", "Karnataka", "India", 12.9716, 77.5946},
	{"Mumbai", "Maharashtra", "India", 19.076, 72.8777},
	{"Delhi", "Delhi", "India", 28.6139, 77.209},
	{"Hyderabad", "Telangana", "India", 17.385, 78.4867},
	{"Chennai", "Tamil Nadu", "India", 13.0827, 80.2707},
	{"Pune", "Maharashtra", "India", 18.5204, 73.8567},
	{"Kolkata", "West Bengal", "India", 22.5726, 88.3639},
	{"Ahmedabad", "Gujarat", "India", 23.0225, 72.5714},
	{"Jaipur", "Rajasthan", "India", 26.9124, 75.7873},
	{"Kochi", "Kerala", "India", 9.9312, 76.2673},
}

type options struct {
	venues, artists, fans, eventsPerArtist int
	minBookings, maxBookings               int
	bcryptCost                             int
	seed                                   uint64
	clear                                  bool
}

func main() {
	var o options
	flag.IntVar(&o.venues, "venues", 200, "number of venues")
	flag.IntVar(&o.artists, "artists", 50, "number of artist accounts")
	flag.IntVar(&o.fans, "fans", 200, "number of fan accounts")
	flag.IntVar(&o.eventsPerArtist, "events-per-artist", 3, "events created per artist")
	flag.IntVar(&o.minBookings, "min-bookings", 5, "minimum bookings per fan")
	flag.IntVar(&o.maxBookings, "max-bookings", 10, "maximum bookings per fan")
	flag.IntVar(&o.bcryptCost, "bcrypt-cost", 4, "bcrypt cost for seeded passwords")
	flag.Uint64Var(&o.seed, "seed", 0, "random seed (0 picks one)")
	flag.BoolVar(&o.clear, "clear", true, "delete existing rows first")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.MustLoad()
	loc, err := cfg.Location()
	if err != nil {
		log.Error("invalid time zone", sl.Err(err))
		os.Exit(1)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Error("failed to connect to database", sl.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := run(context.Background(), log, db, loc, o); err != nil {
		log.Error("seeding failed", sl.Err(err))
		os.Exit(1)
	}
	log.Info("seeding finished")
}

func run(ctx context.Context, log *slog.Logger, db *sql.DB, loc *time.Location, o options) error {
	f := gofakeit.New(o.seed)

	accounts := repository.NewAccountRepo(db)
	artists := repository.NewArtistRepo(db)
	venues := repository.NewVenueRepo(db)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db, events)

	if o.clear {
		log.Info("clearing tables")
		for _, table := range []string{"bookings", "events", "artists", "venues", "refresh_tokens", "accounts"} {
			if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
	}

	log.Info("creating venues", slog.Int("count", o.venues))
	venueIDs := make([]uint64, 0, o.venues)
	for i := 0; i < o.venues; i++ {
		base := citySeeds[f.IntRange(0, len(citySeeds)-1)]
		v, err := venues.Create(ctx, model.Venue{
			Name:    fmt.Sprintf("%s Arena %d", f.Company(), i+1),
			Address: f.Street(),
			City:    base.City,
			State:   base.State,
			Country: base.Country,
			Location: model.GeoPoint{
				Lat: jitter(f, base.Lat),
				Lng: jitter(f, base.Lng),
			},
		})
		if err != nil {
			return err
		}
		venueIDs = append(venueIDs, v.ID)
	}

	log.Info("creating artists", slog.Int("count", o.artists))
	eventIDs := make([]uint64, 0, o.artists*o.eventsPerArtist)
	for i := 0; i < o.artists; i++ {
		accountID, err := accounts.Create(ctx, f.Name(), fmt.Sprintf("artist%d@seeded.com", i+1),
			seedPassword, model.RoleArtist, o.bcryptCost)
		if err != nil {
			return err
		}
		a := model.Artist{
			AccountID: accountID,
			StageName: truncate(f.SongName(), 80),
			Bio:       truncate(f.Sentence(f.IntRange(8, 30)), 500),
			City:      citySeeds[f.IntRange(0, len(citySeeds)-1)].City,
			SocialLinks: model.SocialLinks{
				Instagram: f.URL(),
				YouTube:   f.URL(),
			},
		}
		if err := artists.Create(ctx, &a); err != nil {
			return err
		}

		for j := 0; j < o.eventsPerArtist; j++ {
			date := time.Now().In(loc).AddDate(0, 0, i*o.eventsPerArtist+j+1)
			start, end := timeRange(f)
			e := model.Event{
				ArtistID:    a.ID,
				VenueID:     venueIDs[f.IntRange(0, len(venueIDs)-1)],
				Title:       truncate(f.SongName(), 80),
				Description: f.Sentence(f.IntRange(6, 20)),
				EventDate:   date,
				StartTime:   start,
				EndTime:     end,
			}
			dayStart, dayEnd := model.DayWindow(date, loc)
			err := events.CreateExclusive(ctx, &e, dayStart, dayEnd)
			if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			if err != nil {
				return err
			}
			eventIDs = append(eventIDs, e.ID)
		}
	}
	log.Info("events created", slog.Int("count", len(eventIDs)))
	if len(eventIDs) == 0 {
		return nil
	}

	log.Info("creating fans and bookings", slog.Int("fans", o.fans))
	total := 0
	for i := 0; i < o.fans; i++ {
		fanID, err := accounts.Create(ctx, f.Name(), fmt.Sprintf("fan%d@seeded.com", i+1),
			seedPassword, model.RoleFan, o.bcryptCost)
		if err != nil {
			return err
		}
		n := f.IntRange(o.minBookings, o.maxBookings)
		for k := 0; k < n; k++ {
			_, err := bookings.Create(ctx, fanID, eventIDs[f.IntRange(0, len(eventIDs)-1)])
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			if err != nil {
				return err
			}
			total++
		}
	}
	log.Info("bookings created", slog.Int("count", total))
	return nil
}

// jitter moves a coordinate by up to 0.25 degrees.
func jitter(f *gofakeit.Faker, base float64) float64 {
	return base + f.Float64Range(-0.25, 0.25)
}

// timeRange returns an evening slot such as "7:00 PM" to "10:00 PM".
func timeRange(f *gofakeit.Faker) (string, string) {
	startHour := f.IntRange(16, 21)
	endHour := min(startHour+f.IntRange(2, 4), 23)
	return clock(startHour), clock(endHour)
}

func clock(hour int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:00 %s", h, suffix)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
