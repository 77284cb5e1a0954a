package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/fitfeast/internal/diary"
)

// bom makes spreadsheet apps read the file as UTF-8.
const bom = "\uFEFF"

const loggedAtLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"Food Item", "Category", "Serving Size", "Unit", "Calories/Unit", "Total Calories", "Logged At"}

// WriteCSV writes the entries as a BOM-prefixed CSV table in store order.
func WriteCSV(w io.Writer, entries []diary.FoodEntry) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	// Header
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			e.FoodItem,
			string(e.Category),
			formatNumber(e.ServingSize),
			e.Unit,
			formatNumber(e.CaloriesPerUnit),
			strconv.Itoa(e.TotalCalories),
			e.LoggedAt().Local().Format(loggedAtLayout),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ToCSV(entries []diary.FoodEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, entries); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

// CSVFileName is fitfeast_log_<date>.csv for the UTC date of t.
func CSVFileName(t time.Time) string {
	return fmt.Sprintf("fitfeast_log_%s.csv", t.UTC().Format("2006-01-02"))
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
