package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/robzajac581/glowra-search-api-sub002/internal/geo"
	"github.com/robzajac581/glowra-search-api-sub002/internal/match"
)

// Loader reads bulk source rows from the spreadsheet exports produced by
// the upstream ingestion. Column names are matched case-insensitively by
// header, so exports with shuffled columns still load.
type Loader struct {
	log *zap.Logger
}

// NewLoader creates a loader.
func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{log: log}
}

// Load reads one CSV export into source rows. Rows with a missing business
// name are dropped; malformed coordinates degrade to an unknown coordinate
// rather than failing the row. The file's row order is preserved, which
// keeps classification deterministic.
func (l *Loader) Load(filename string) ([]match.Source, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", filename, err)
	}
	cols := indexColumns(header)

	var sources []match.Source
	line := 1
	dropped := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			l.log.Warn("skipping malformed csv row",
				zap.Int("line", line),
				zap.Error(err))
			dropped++
			continue
		}

		src, ok := l.rowToSource(cols, record, line)
		if !ok {
			dropped++
			continue
		}
		sources = append(sources, src)
	}

	l.log.Info("loaded source rows",
		zap.String("file", filename),
		zap.Int("rows", len(sources)),
		zap.Int("dropped", dropped))

	return sources, nil
}

func (l *Loader) rowToSource(cols map[string]int, record []string, line int) (match.Source, bool) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	src := match.Source{
		Name:    get("name"),
		Address: get("address"),
		Street:  get("street"),
		City:    get("city"),
		State:   get("state"),
		Postal:  get("postal"),
		PlaceID: get("place_id"),
		Phone:   get("phone"),
		Website: get("website"),
	}

	if src.Name == "" {
		l.log.Warn("skipping row with no business name", zap.Int("line", line))
		return match.Source{}, false
	}

	if links := get("profile_links"); links != "" {
		src.ProfileLinks = strings.Split(links, "|")
	}

	src.Coord = parseCoord(get("latitude"), get("longitude"))
	if src.Coord == nil && get("latitude") != "" {
		l.log.Debug("row has unparseable coordinates, distance will be unknown",
			zap.Int("line", line),
			zap.String("name", src.Name))
	}

	return src, true
}

// parseCoord returns nil for any missing or malformed component; an unknown
// coordinate is a degraded signal, never an error.
func parseCoord(latText, lngText string) *geo.Point {
	if latText == "" || lngText == "" {
		return nil
	}
	lat, err1 := strconv.ParseFloat(latText, 64)
	lng, err2 := strconv.ParseFloat(lngText, 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return nil
	}
	return &geo.Point{Lat: lat, Lng: lng}
}

// indexColumns maps normalized header names to column positions. Common
// variants of each column are folded to one canonical name.
func indexColumns(header []string) map[string]int {
	aliases := map[string]string{
		"business_name":    "name",
		"businessname":     "name",
		"name":             "name",
		"full_address":     "address",
		"address":          "address",
		"street":           "street",
		"street_address":   "street",
		"city":             "city",
		"state":            "state",
		"postal":           "postal",
		"postal_code":      "postal",
		"zip":              "postal",
		"place_id":         "place_id",
		"placeid":          "place_id",
		"latitude":         "latitude",
		"lat":              "latitude",
		"longitude":        "longitude",
		"lng":              "longitude",
		"lon":              "longitude",
		"phone":            "phone",
		"phone_number":     "phone",
		"website":          "website",
		"site":             "website",
		"profile_links":    "profile_links",
		"social_profiles":  "profile_links",
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if canonical, ok := aliases[key]; ok {
			if _, exists := cols[canonical]; !exists {
				cols[canonical] = i
			}
		}
	}
	return cols
}
