package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/telehealth-scheduling/internal/auth"
	"github.com/hackgods/telehealth-scheduling/internal/config"
	"github.com/hackgods/telehealth-scheduling/internal/db"
	"github.com/hackgods/telehealth-scheduling/internal/directory"
	"github.com/hackgods/telehealth-scheduling/internal/logging"
	"github.com/hackgods/telehealth-scheduling/internal/slot"
)

const (
	doctorCount  = 20
	patientCount = 500
	slotDays     = 7
)

var specialities = []string{
	"General physician",
	"Gynecologist",
	"Dermatologist",
	"Pediatricians",
	"Neurologist",
	"Gastroenterologist",
}

var dayLabels = []string{
	"09:00 AM", "09:30 AM", "10:00 AM", "10:30 AM", "11:00 AM", "11:30 AM",
	"02:00 PM", "02:30 PM", "03:00 PM", "03:30 PM", "04:00 PM", "04:30 PM",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("dev", "info").Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New(cfg.Env, cfg.LogLevel).With().Str("service", "seed").Logger()
	logger.Info().Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if _, err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	gofakeit.Seed(time.Now().UnixNano())

	dir := directory.NewService(directory.NewPgRepository(pool), cfg.StorageTimeout)
	slots := slot.NewService(slot.NewPgRepository(pool), cfg.StorageTimeout)

	doctors, err := seedDoctors(ctx, dir, slots, cfg.Location(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}
	patients, err := seedPatients(ctx, dir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}

	if err := printTokens(auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL), doctors, patients); err != nil {
		logger.Fatal().Err(err).Msg("issue tokens")
	}
	logger.Info().Int("doctors", len(doctors)).Int("patients", len(patients)).Msg("seed complete")
}

func seedDoctors(ctx context.Context, dir *directory.Service, slots *slot.Service, loc *time.Location, logger zerolog.Logger) ([]uuid.UUID, error) {
	logger.Info().Int("count", doctorCount).Msg("seeding doctors")

	today := time.Now().In(loc)
	var ids []uuid.UUID
	for len(ids) < doctorCount {
		d, err := dir.CreateDoctor(ctx, directory.NewDoctor{
			Name:       "Dr. " + gofakeit.Name(),
			Email:      gofakeit.Email(),
			Speciality: specialities[gofakeit.Number(0, len(specialities)-1)],
			Fee:        int64(gofakeit.Number(2, 20)) * 50,
		})
		if errors.Is(err, directory.ErrEmailTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		for day := 1; day <= slotDays; day++ {
			date := today.AddDate(0, 0, day).Format(slot.DateLayout)
			if _, err := slots.Set(ctx, d.ID, date, pick(dayLabels)); err != nil {
				return nil, fmt.Errorf("slots for %s: %w", d.ID, err)
			}
		}
		ids = append(ids, d.ID)
	}

	logger.Info().Msg("doctors seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, dir *directory.Service, logger zerolog.Logger) ([]uuid.UUID, error) {
	logger.Info().Int("count", patientCount).Msg("seeding patients")

	var ids []uuid.UUID
	for len(ids) < patientCount {
		p, err := dir.CreatePatient(ctx, directory.NewPatient{
			Name:  gofakeit.Name(),
			Email: gofakeit.Email(),
		})
		if errors.Is(err, directory.ErrEmailTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)

		if len(ids)%100 == 0 {
			logger.Info().Int("seeded", len(ids)).Int("total", patientCount).Msg("patients seeded")
		}
	}
	return ids, nil
}

// pick returns a random, order-preserving subset of at least half the labels.
func pick(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if gofakeit.Bool() || len(out) < len(labels)/2 {
			out = append(out, l)
		}
	}
	return out
}

func printTokens(issuer *auth.Issuer, doctors, patients []uuid.UUID) error {
	admin, _, err := issuer.Issue(uuid.New(), auth.RoleAdmin)
	if err != nil {
		return err
	}
	doctor, _, err := issuer.Issue(doctors[0], auth.RoleDoctor)
	if err != nil {
		return err
	}
	patient, _, err := issuer.Issue(patients[0], auth.RolePatient)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "ADMIN_TOKEN=%s\n", admin)
	fmt.Fprintf(os.Stdout, "DOCTOR_ID=%s\nDOCTOR_TOKEN=%s\n", doctors[0], doctor)
	fmt.Fprintf(os.Stdout, "PATIENT_ID=%s\nPATIENT_TOKEN=%s\n", patients[0], patient)
	return nil
}
