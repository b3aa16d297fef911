package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"sodatrack-backend/internal/weekcal"
)

// WeeklyBase returns the extension-less base name shared by a week's
// dataset and its summary, e.g. "publix_soda_prices_week3_202508".
// the week is passed in rather than derived from t so a run pinned to
// an explicit week number names its files accordingly.
func WeeklyBase(week int, t time.Time) string {
	return fmt.Sprintf("publix_soda_prices_week%d_%s", week, weekcal.MonthYearCompact(t))
}

// MonthlyBase returns the base name for a month's consolidated dataset,
// e.g. "publix_soda_prices_monthly_202508".
func MonthlyBase(t time.Time) string {
	return fmt.Sprintf("publix_soda_prices_monthly_%s", weekcal.MonthYearCompact(t))
}

func WeeklyPath(dir string, week int, t time.Time, format Format) string {
	return filepath.Join(dir, WeeklyBase(week, t)+"."+string(format))
}

func MonthlyPath(dir string, t time.Time) string {
	return filepath.Join(dir, MonthlyBase(t)+".csv")
}

// TempPath is where partial results accumulate while a run is in
// flight. The file is removed once the final dataset is written.
func TempPath(dir string, week int, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("temp_week%d_%s.csv", week, weekcal.MonthYearCompact(t)))
}

// SummaryPath derives the summary sidecar for a dataset base name.
func SummaryPath(dir, base string) string {
	return filepath.Join(dir, base+"_summary.json")
}

// WeeklyGlob matches every weekly dataset of t's month in the given
// format, used by the monthly consolidation pass.
func WeeklyGlob(dir string, t time.Time, format Format) string {
	return filepath.Join(dir, fmt.Sprintf("publix_soda_prices_week*_%s.%s", weekcal.MonthYearCompact(t), format))
}
