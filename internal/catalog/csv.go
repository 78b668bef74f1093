package catalog

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

// DirSource loads the catalog from CSV files in a directory:
// countries.csv, roaming_rates.csv, roaming_packs.csv. Each file has a header
// row. This mirrors the seed-data layout the service ships with.
type DirSource struct {
	Dir string
}

func NewDirSource(dir string) *DirSource { return &DirSource{Dir: dir} }

func (d *DirSource) Load(ctx context.Context) (*Snapshot, error) {
	countries, err := d.loadCountries()
	if err != nil {
		return nil, err
	}
	rates, err := d.loadRates()
	if err != nil {
		return nil, err
	}
	packs, err := d.loadPacks()
	if err != nil {
		return nil, err
	}
	return NewSnapshot(countries, rates, packs), nil
}

func (d *DirSource) loadCountries() ([]model.Country, error) {
	rows, err := readCSV(filepath.Join(d.Dir, "countries.csv"))
	if err != nil {
		return nil, err
	}
	out := make([]model.Country, 0, len(rows))
	for i, rec := range rows {
		if len(rec) < 3 {
			return nil, fmt.Errorf("countries.csv row %d: want 3 columns, got %d", i+2, len(rec))
		}
		out = append(out, model.Country{Code: rec[0], Name: rec[1], Region: rec[2]})
	}
	return out, nil
}

func (d *DirSource) loadRates() ([]model.RoamingRate, error) {
	rows, err := readCSV(filepath.Join(d.Dir, "roaming_rates.csv"))
	if err != nil {
		return nil, err
	}
	out := make([]model.RoamingRate, 0, len(rows))
	for i, rec := range rows {
		if len(rec) < 5 {
			return nil, fmt.Errorf("roaming_rates.csv row %d: want 5 columns, got %d", i+2, len(rec))
		}
		data, err1 := strconv.ParseFloat(rec[1], 64)
		voice, err2 := strconv.ParseFloat(rec[2], 64)
		sms, err3 := strconv.ParseFloat(rec[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("roaming_rates.csv row %d: bad number", i+2)
		}
		out = append(out, model.RoamingRate{
			CountryCode: rec[0],
			DataPerMB:   data,
			VoicePerMin: voice,
			SMSPerMsg:   sms,
			Currency:    rec[4],
		})
	}
	return out, nil
}

func (d *DirSource) loadPacks() ([]model.RoamingPack, error) {
	rows, err := readCSV(filepath.Join(d.Dir, "roaming_packs.csv"))
	if err != nil {
		return nil, err
	}
	out := make([]model.RoamingPack, 0, len(rows))
	for i, rec := range rows {
		if len(rec) < 10 {
			return nil, fmt.Errorf("roaming_packs.csv row %d: want 10 columns, got %d", i+2, len(rec))
		}
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("roaming_packs.csv row %d: bad pack id %q", i+2, rec[0])
		}
		dataGB, err1 := strconv.ParseFloat(rec[4], 64)
		voiceMin, err2 := strconv.Atoi(rec[5])
		sms, err3 := strconv.Atoi(rec[6])
		price, err4 := strconv.ParseFloat(rec[7], 64)
		validity, err5 := strconv.Atoi(rec[8])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			return nil, fmt.Errorf("roaming_packs.csv row %d: bad number", i+2)
		}
		out = append(out, model.RoamingPack{
			ID:           id,
			Name:         rec[1],
			Coverage:     rec[2],
			CoverageType: rec[3],
			DataGB:       dataGB,
			VoiceMin:     voiceMin,
			SMS:          sms,
			Price:        price,
			ValidityDays: validity,
			Currency:     rec[9],
		})
	}
	return out, nil
}

// readCSV reads all records after the header row, trimming cell whitespace.
func readCSV(path string) ([][]string, error) {
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
