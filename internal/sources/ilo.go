package sources

import (
	"log/slog"

	dp "govpanel/internal/dataprocessing"
)

// ILO sector codes and the labels they pivot to
const (
	ILOSectorPublic  = "INS_SECTOR_PUB"
	ILOSectorPrivate = "INS_SECTOR_PRI"

	ColPublic  = "Public"
	ColPrivate = "Private"

	// ColPublicShare is Public / (Public + Private)
	ColPublicShare = "Public_Sector_Employment_Share"

	ColSector = "Sector"
)

var iloSectors = map[string]string{
	ILOSectorPublic:  ColPublic,
	ILOSectorPrivate: ColPrivate,
}

var iloSourceColumns = map[string]string{
	"ref_area":  ColCountryCode,
	"time":      ColYear,
	"classif2":  ColSector,
	"obs_value": ColValue,
}

var iloRequired = []string{"ref_area", "time", "classif2", "obs_value"}

// ILOHeader is the column layout of cleaned_ilo.csv
var ILOHeader = []string{
	ColCountryCode, ColYear, ColPrivate, ColPublic, ColPublicShare,
	ColCountryName, ColRegion, ColIncomeGroup,
}

// ILORecord is one country × year row of public and private employment
type ILORecord struct {
	CountryCode string
	Year        int
	Private     dp.Cell
	Public      dp.Cell
	Share       dp.Cell

	Class Classification
}

// Record encodes the row in ILOHeader order
func (r ILORecord) Record() []string {
	return []string{
		r.CountryCode, formatYear(r.Year),
		r.Private.String(), r.Public.String(), r.Share.String(),
		r.Class.CountryName, r.Class.Region, r.Class.IncomeGroup,
	}
}

// PublicShare computes public / (public + private).
// Either side missing gives a missing share; 0/0 is missing as well.
func PublicShare(public, private dp.Cell) dp.Cell {
	if !public.Valid || !private.Valid {
		return dp.Missing
	}
	return dp.Some(public.Value / (public.Value + private.Value))
}

// CleanILO reads the ILO export and derives the public sector employment share
func CleanILO(path string, class *Classifications) (*Result[ILORecord], error) {
	t, err := dp.ReadCSV(SourceILO, path)
	if err != nil {
		return nil, err
	}
	return cleanILOTable(t, class)
}

func cleanILOTable(t *dp.Table, class *Classifications) (*Result[ILORecord], error) {
	res := newResult[ILORecord](SourceILO, ILOHeader)
	res.Stats.Read = t.Len()

	if err := t.Require(iloRequired...); err != nil {
		return nil, err
	}
	t.Rename(iloSourceColumns)

	obs := make([]dp.Observation, 0, t.Len())
	for r := range t.Rows {
		sector, ok := iloSectors[t.Value(r, ColSector)]
		if !ok {
			res.Stats.Drop(dp.ReasonSectorExcluded, 1)
			continue
		}
		year, ok := dp.ParseYear(t.Value(r, ColYear))
		if !ok {
			res.Stats.Drop(dp.ReasonYearUnparseable, 1)
			continue
		}
		value, ok := dp.ParseValue(t.Value(r, ColValue))
		if !ok {
			res.Stats.Drop(dp.ReasonValueMissing, 1)
			continue
		}

		obs = append(obs, dp.Observation{
			Key:    dp.Key{Code: t.Value(r, ColCountryCode), Year: year},
			Column: sector,
			Value:  dp.Some(value),
		})
	}

	wide := dp.PivotFirst(obs)
	wide.SortKeys()

	codes := make([]string, 0, wide.Len())
	for _, k := range wide.Keys {
		if !dp.InYearRange(k.Year) {
			res.Stats.Drop(dp.ReasonYearOutOfRange, 1)
			continue
		}

		public := wide.Get(k, ColPublic)
		private := wide.Get(k, ColPrivate)
		codes = append(codes, k.Code)
		res.Rows = append(res.Rows, ILORecord{
			CountryCode: k.Code,
			Year:        k.Year,
			Private:     private,
			Public:      public,
			Share:       PublicShare(public, private),
			Class:       class.Join(k.Code),
		})
	}

	res.Stats.Kept = len(res.Rows)
	countUnmatched(SourceILO, class, codes)

	slog.Info("ILO cleaned",
		slog.Int("source_rows", res.Stats.Read),
		slog.Int("sector_observations", len(obs)),
		slog.Int("country_years", res.Stats.Kept),
		slog.Int("dropped", res.Stats.TotalDropped()))

	return res, nil
}

// ReadCleanedILO parses a persisted cleaned_ilo.csv
func ReadCleanedILO(path string) ([]ILORecord, error) {
	t, err := dp.ReadCSV(SourceILO, path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(ColCountryCode, ColYear, ColPublicShare); err != nil {
		return nil, err
	}

	rows := make([]ILORecord, 0, t.Len())
	for r := range t.Rows {
		year, ok := dp.ParseYear(t.Value(r, ColYear))
		if !ok {
			continue
		}
		rows = append(rows, ILORecord{
			CountryCode: t.Value(r, ColCountryCode),
			Year:        year,
			Private:     dp.ParseCell(t.Value(r, ColPrivate)),
			Public:      dp.ParseCell(t.Value(r, ColPublic)),
			Share:       dp.ParseCell(t.Value(r, ColPublicShare)),
			Class:       classFromTable(t, r),
		})
	}
	return rows, nil
}
