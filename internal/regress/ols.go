// internal/regress/ols.go

// Package regress fits ordinary least squares models over exported price
// records so collected prices can be explained by listing attributes.
package regress

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrTooFewObservations is returned when there are not enough rows to
	// estimate the requested coefficients.
	ErrTooFewObservations = errors.New("too few observations for regression")
	// ErrSingular is returned when the design matrix is rank-deficient.
	ErrSingular = errors.New("design matrix is singular")
)

// Observation is one row of the regression dataset: the dependent value and
// one value per independent variable, in the order of Spec.Independents.
type Observation struct {
	Dependent    float64
	Independents []float64
}

// Spec names the variables of a fit.
type Spec struct {
	Dependent    string
	Independents []string
}

// Validate rejects malformed variable sets before fitting.
func (s Spec) Validate() error {
	if s.Dependent == "" {
		return errors.New("dependent variable is required")
	}
	if len(s.Independents) == 0 {
		return errors.New("at least one independent variable is required")
	}
	seen := map[string]bool{}
	for _, v := range s.Independents {
		if v == s.Dependent {
			return fmt.Errorf("dependent variable %q cannot be among independents", v)
		}
		if seen[v] {
			return fmt.Errorf("duplicate independent variable %q", v)
		}
		seen[v] = true
	}
	return nil
}

// Coefficient is one fitted term with its inference statistics.
type Coefficient struct {
	Name     string    `json:"name"`
	Estimate float64   `json:"estimate"`
	StdErr   float64   `json:"std_err"`
	TStat    float64   `json:"t_stat"`
	PValue   float64   `json:"p_value"`
	ConfInt  []float64 `json:"conf_int"`
}

// Result is a fitted OLS model. FStat and FPValue are nil when the residual
// sum of squares is zero (a perfect fit leaves the statistic undefined);
// every populated value is finite so the result always marshals to JSON.
type Result struct {
	Formula      string        `json:"formula"`
	Coefficients []Coefficient `json:"coefficients"`
	RSquared     float64       `json:"r_squared"`
	AdjRSquared  float64       `json:"adj_r_squared"`
	FStat        *float64      `json:"f_stat,omitempty"`
	FPValue      *float64      `json:"f_p_value,omitempty"`
	Observations int           `json:"n_observations"`
}

// Fit estimates dependent ~ intercept + independents by ordinary least
// squares and computes coefficient standard errors, t statistics, two-sided
// p values, 95% confidence intervals, R², adjusted R², and the overall
// F statistic.
func Fit(spec Spec, obs []Observation) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	n := len(obs)
	k := len(spec.Independents)
	p := k + 1 // terms including intercept
	if n <= p {
		return nil, fmt.Errorf("%w: %d observations for %d terms", ErrTooFewObservations, n, p)
	}

	// Design matrix with an intercept column.
	x := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i, o := range obs {
		if len(o.Independents) != k {
			return nil, fmt.Errorf("observation %d has %d values, want %d", i, len(o.Independents), k)
		}
		x.Set(i, 0, 1)
		for j, v := range o.Independents {
			x.Set(i, j+1, v)
		}
		y.SetVec(i, o.Dependent)
	}

	// beta = (X'X)^-1 X'y
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)
	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	// Residuals and sums of squares.
	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	meanY := mat.Sum(y) / float64(n)
	var rss, tss float64
	for i := 0; i < n; i++ {
		r := y.AtVec(i) - fitted.AtVec(i)
		rss += r * r
		d := y.AtVec(i) - meanY
		tss += d * d
	}

	df := float64(n - p)
	sigma2 := rss / df

	rSquared := 0.0
	if tss > 0 {
		rSquared = 1 - rss/tss
	}
	adjRSquared := 1 - (1-rSquared)*float64(n-1)/df

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	tCrit := tDist.Quantile(0.975)

	names := append([]string{"Intercept"}, spec.Independents...)
	coefs := make([]Coefficient, p)
	for j := 0; j < p; j++ {
		est := beta.AtVec(j)
		se := math.Sqrt(sigma2 * xtxInv.At(j, j))
		var tStat, pValue float64
		if se > 0 {
			tStat = est / se
			pValue = 2 * tDist.Survival(math.Abs(tStat))
		}
		coefs[j] = Coefficient{
			Name:     names[j],
			Estimate: est,
			StdErr:   se,
			TStat:    tStat,
			PValue:   pValue,
			ConfInt:  []float64{est - tCrit*se, est + tCrit*se},
		}
	}

	var fStat, fPValue *float64
	if rss > 0 && tss > rss {
		f := ((tss - rss) / float64(k)) / (rss / df)
		fDist := distuv.F{D1: float64(k), D2: df}
		p := fDist.Survival(f)
		fStat, fPValue = &f, &p
	}

	formula := spec.Dependent + " ~ " + spec.Independents[0]
	for _, v := range spec.Independents[1:] {
		formula += " + " + v
	}

	return &Result{
		Formula:      formula,
		Coefficients: coefs,
		RSquared:     rSquared,
		AdjRSquared:  adjRSquared,
		FStat:        fStat,
		FPValue:      fPValue,
		Observations: n,
	}, nil
}
