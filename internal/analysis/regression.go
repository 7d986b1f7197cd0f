package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"govpanel/internal/exporter"
	"govpanel/internal/panel"
)

// z975 is the two-sided 95% normal quantile
const z975 = 1.96

// collinearTol drops regressors whose demeaned column is numerically zero
const collinearTol = 1e-10

// Coefficient is one estimated slope of a lag regression
type Coefficient struct {
	Lag      int
	Variable string
	Estimate float64
	StdError float64
	CILower  float64
	CIUpper  float64
	NObs     int
	Entities int
}

// RegressionHeader is the layout of lag_regressions.csv
var RegressionHeader = []string{"lag", "variable", "coefficient", "std_error", "ci_lower", "ci_upper", "nobs", "entities"}

// Record encodes the coefficient for lag_regressions.csv
func (c Coefficient) Record() []string {
	return []string{
		exporter.FormatInt(c.Lag), c.Variable,
		exporter.FormatFloat(c.Estimate), exporter.FormatFloat(c.StdError),
		exporter.FormatFloat(c.CILower), exporter.FormatFloat(c.CIUpper),
		exporter.FormatInt(c.NObs), exporter.FormatInt(c.Entities),
	}
}

// ErrInsufficientData is returned when a lag has too few complete rows to estimate
var ErrInsufficientData = errors.New("insufficient data for estimation")

// EstimateLag fits
//
//	Government_Effectiveness ~ LagN + log_GDP_Per_Capita + EntityEffects + TimeEffects
//
// on the complete rows of the view. Entity effects are removed by
// within-country demeaning, time effects by year dummies (first year is the
// base). Standard errors are clustered by country.
func EstimateLag(v *panel.LaggedView, lag int) ([]Coefficient, error) {
	rows := v.Complete(lag)

	entityOf := make(map[string]int)
	var entities []string
	yearSet := make(map[int]struct{})
	for _, r := range rows {
		if _, ok := entityOf[r.CountryCode]; !ok {
			entityOf[r.CountryCode] = len(entities)
			entities = append(entities, r.CountryCode)
		}
		yearSet[r.Year] = struct{}{}
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	names := []string{panel.LagColumn(lag), panel.ColLogGDPPerCapita}
	n := len(rows)
	k := len(names) + max(len(years)-1, 0)
	if n == 0 || len(entities) < 2 {
		return nil, ErrInsufficientData
	}

	yearCol := make(map[int]int, len(years))
	for i, y := range years[min(1, len(years)):] {
		yearCol[y] = len(names) + i
	}

	y := make([]float64, n)
	x := make([][]float64, n)
	groups := make([]int, n)
	for i, r := range rows {
		y[i] = r.GovernmentEffectiveness.Value
		row := make([]float64, k)
		row[0] = r.Lag(v, lag).Value
		row[1] = r.LogGDP.Value
		if c, ok := yearCol[r.Year]; ok {
			row[c] = 1
		}
		x[i] = row
		groups[i] = entityOf[r.CountryCode]
	}

	demean(y, x, groups, len(entities))

	keep := nonZeroColumns(x, k)
	if len(keep) < len(names) || keep[0] != 0 || keep[1] != 1 {
		return nil, ErrInsufficientData
	}
	p := len(keep)
	if n-len(entities)-p <= 0 {
		return nil, fmt.Errorf("lag %d: %w: %d rows for %d entities and %d regressors",
			lag, ErrInsufficientData, n, len(entities), p)
	}

	xm := mat.NewDense(n, p, nil)
	for i := range x {
		for j, c := range keep {
			xm.Set(i, j, x[i][c])
		}
	}
	yv := mat.NewVecDense(n, y)

	var xtx, xtxInv mat.Dense
	xtx.Mul(xm.T(), xm)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("lag %d: %w: singular design: %v", lag, ErrInsufficientData, err)
	}

	var xty, beta mat.VecDense
	xty.MulVec(xm.T(), yv)
	beta.MulVec(&xtxInv, &xty)

	var fitted, resid mat.VecDense
	fitted.MulVec(xm, &beta)
	resid.SubVec(yv, &fitted)

	cov := clusteredCovariance(xm, &resid, &xtxInv, groups, len(entities))

	out := make([]Coefficient, len(names))
	for j, name := range names {
		est := beta.AtVec(j)
		se := math.Sqrt(math.Max(cov.At(j, j), 0))
		out[j] = Coefficient{
			Lag:      lag,
			Variable: name,
			Estimate: est,
			StdError: se,
			CILower:  est - z975*se,
			CIUpper:  est + z975*se,
			NObs:     n,
			Entities: len(entities),
		}
	}
	return out, nil
}

// demean subtracts the per-group mean from y and every column of x
func demean(y []float64, x [][]float64, groups []int, ngroups int) {
	counts := make([]float64, ngroups)
	ySum := make([]float64, ngroups)
	k := 0
	if len(x) > 0 {
		k = len(x[0])
	}
	xSum := make([][]float64, ngroups)
	for g := range xSum {
		xSum[g] = make([]float64, k)
	}

	for i, g := range groups {
		counts[g]++
		ySum[g] += y[i]
		for j := 0; j < k; j++ {
			xSum[g][j] += x[i][j]
		}
	}

	for i, g := range groups {
		y[i] -= ySum[g] / counts[g]
		for j := 0; j < k; j++ {
			x[i][j] -= xSum[g][j] / counts[g]
		}
	}
}

// nonZeroColumns returns the columns of x with a non-negligible norm
func nonZeroColumns(x [][]float64, k int) []int {
	var keep []int
	for j := 0; j < k; j++ {
		var ss float64
		for i := range x {
			ss += x[i][j] * x[i][j]
		}
		if ss > collinearTol {
			keep = append(keep, j)
		}
	}
	return keep
}

// clusteredCovariance is the sandwich (X'X)^-1 (Σ_g s_g s_g') (X'X)^-1
// where s_g sums x_i·u_i over the rows of cluster g
func clusteredCovariance(x *mat.Dense, resid *mat.VecDense, bread *mat.Dense, groups []int, ngroups int) *mat.Dense {
	_, p := x.Dims()

	scores := make([]*mat.VecDense, ngroups)
	for g := range scores {
		scores[g] = mat.NewVecDense(p, nil)
	}
	for i, g := range groups {
		u := resid.AtVec(i)
		for j := 0; j < p; j++ {
			scores[g].SetVec(j, scores[g].AtVec(j)+x.At(i, j)*u)
		}
	}

	meat := mat.NewDense(p, p, nil)
	for _, s := range scores {
		meat.RankOne(meat, 1, s, s)
	}

	var tmp, cov mat.Dense
	tmp.Mul(bread, meat)
	cov.Mul(&tmp, bread)
	return &cov
}
