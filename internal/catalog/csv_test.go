package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func seedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "countries.csv", `country_code,country_name,region
FR,France,Europe
ES,Spain,Europe
`)
	writeFile(t, dir, "roaming_rates.csv", `country_code,data_per_mb,voice_per_min,sms_per_msg,currency
FR,0.02,0.15,0.06,EUR
ES,0.02,0.15,0.06,EUR
`)
	writeFile(t, dir, "roaming_packs.csv", `id,name,coverage,coverage_type,data_gb,voice_min,sms,price,validity_days,currency
1,Europe Pack 1GB,Europe,region,1,60,50,20,7,EUR
2,France Week Pass,FR,country,2,120,100,15,7,EUR
`)
	return dir
}

func TestDirSourceLoad(t *testing.T) {
	src := NewDirSource(seedDir(t))
	snap, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Countries()) != 2 {
		t.Fatalf("countries: got %d", len(snap.Countries()))
	}
	c, ok := snap.Country("FR")
	if !ok || c.Name != "France" || c.Region != "Europe" {
		t.Fatalf("FR: %+v ok=%v", c, ok)
	}
	r, ok := snap.Rate("ES")
	if !ok || r.DataPerMB != 0.02 || r.Currency != "EUR" {
		t.Fatalf("ES rate: %+v ok=%v", r, ok)
	}
	packs := snap.Packs()
	if len(packs) != 2 || packs[0].ID != 1 || packs[1].Name != "France Week Pass" {
		t.Fatalf("packs: %+v", packs)
	}
	if packs[0].DataGB != 1 || packs[0].ValidityDays != 7 || packs[0].Price != 20 {
		t.Fatalf("pack 1 fields: %+v", packs[0])
	}
}

func TestDirSourceMissingFile(t *testing.T) {
	src := NewDirSource(t.TempDir())
	if _, err := src.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing csv files")
	}
}

func TestDirSourceBadRow(t *testing.T) {
	dir := seedDir(t)
	writeFile(t, dir, "roaming_packs.csv", `id,name,coverage,coverage_type,data_gb,voice_min,sms,price,validity_days,currency
x,Broken,Europe,region,1,60,50,20,7,EUR
`)
	src := NewDirSource(dir)
	if _, err := src.Load(context.Background()); err == nil {
		t.Fatal("expected error for non-numeric pack id")
	}
}

func TestSnapshotDedupes(t *testing.T) {
	snap, err := NewDirSource(seedDir(t)).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := snap.Pack(99); ok {
		t.Fatal("unknown pack id must miss")
	}
	if got := len(snap.Rates()); got != 2 {
		t.Fatalf("rates: got %d", got)
	}
}
