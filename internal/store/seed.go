package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"roamcost/internal/model"
)

// SeedFromDir loads users.csv and usage_profile.csv from the data directory
// into the store. Missing files are skipped; the catalog CSVs in the same
// directory are handled by the catalog package.
func SeedFromDir(ctx context.Context, s Store, dir string) error {
	if err := seedUsers(ctx, s, filepath.Join(dir, "users.csv")); err != nil {
		return err
	}
	return seedProfiles(ctx, s, filepath.Join(dir, "usage_profile.csv"))
}

func seedUsers(ctx context.Context, s Store, path string) error {
	rows, err := readSeedCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for i, rec := range rows {
		if len(rec) < 3 {
			return fmt.Errorf("users.csv row %d: want 3 columns, got %d", i+2, len(rec))
		}
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return fmt.Errorf("users.csv row %d: bad user id %q", i+2, rec[0])
		}
		if err := s.PutUser(ctx, model.User{ID: id, Name: rec[1], HomePlan: rec[2]}); err != nil {
			return err
		}
	}
	return nil
}

func seedProfiles(ctx context.Context, s Store, path string) error {
	rows, err := readSeedCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for i, rec := range rows {
		if len(rec) < 4 {
			return fmt.Errorf("usage_profile.csv row %d: want 4 columns, got %d", i+2, len(rec))
		}
		id, err1 := strconv.ParseInt(rec[0], 10, 64)
		mb, err2 := strconv.Atoi(rec[1])
		mins, err3 := strconv.Atoi(rec[2])
		sms, err4 := strconv.Atoi(rec[3])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return fmt.Errorf("usage_profile.csv row %d: bad number", i+2)
		}
		p := model.StoredProfile{UserID: id, Profile: model.UsageProfile{AvgDailyMB: mb, AvgDailyMin: mins, AvgDailySMS: sms}}
		if err := s.PutUsageProfile(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func readSeedCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if len(all) <= 1 {
		return nil, nil
	}
	rows := all[1:]
	for _, rec := range rows {
		for j := range rec {
			rec[j] = strings.TrimSpace(rec[j])
		}
	}
	return rows, nil
}
