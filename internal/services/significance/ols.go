package significance

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/j-veylop/divvy-insights/internal/models"
)

// InterceptTerm names the constant column of every fit.
const InterceptTerm = models.InterceptTerm

// rankTolerance is the singular value cutoff, relative to the largest
// singular value, below which a design column counts as dependent.
const rankTolerance = 1e-10

// observation is one aligned regression row. key orders rows canonically.
type observation struct {
	key string
	y   float64
	x   []float64
}

func sortObservations(obs []observation) {
	slices.SortFunc(obs, func(a, b observation) int {
		if c := cmp.Compare(a.key, b.key); c != 0 {
			return c
		}
		if c := cmp.Compare(a.y, b.y); c != 0 {
			return c
		}
		return slices.Compare(a.x, b.x)
	})
}

// ols fits y on an intercept plus the covariates by QR decomposition and
// reports t-tests on every coefficient.
func ols(response string, covariates []string, obs []observation) (*models.SignificanceTestResult, error) {
	n, k := len(obs), len(covariates)
	if n <= k+1 {
		return nil, &models.InsufficientDataError{N: n, Required: k + 1}
	}
	p := k + 1

	sortObservations(obs)

	x := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i, o := range obs {
		x.Set(i, 0, 1)
		for j, v := range o.x {
			x.Set(i, j+1, v)
		}
		y.SetVec(i, o.y)
	}

	terms := append([]string{InterceptTerm}, covariates...)

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDNone) {
		return nil, errors.New("singular value decomposition of design matrix failed")
	}
	if rank := svd.Rank(rankTolerance); rank < p {
		return nil, &models.CollinearityError{Rank: rank, Columns: terms}
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return nil, fmt.Errorf("failed to solve least squares: %w", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	mean := mat.Sum(y) / float64(n)
	var rss, sst float64
	for i := range n {
		r := y.AtVec(i) - fitted.AtVec(i)
		rss += r * r
		d := y.AtVec(i) - mean
		sst += d * d
	}

	var xtx, inv mat.Dense
	xtx.Mul(x.T(), x)
	if err := inv.Inverse(&xtx); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("failed to invert normal matrix: %w", err)
		}
	}

	df := n - p
	sigma2 := rss / float64(df)
	dist := tdist(df)

	res := &models.SignificanceTestResult{
		Response:     response,
		Terms:        terms,
		Coefficients: make([]float64, p),
		StdErrors:    make([]float64, p),
		TStats:       make([]float64, p),
		PValues:      make([]float64, p),
		RSquared:     rSquared(rss, sst),
		N:            n,
		DF:           df,
	}
	for j := range p {
		b := beta.AtVec(j)
		se := math.Sqrt(math.Max(0, sigma2*inv.At(j, j)))
		t, pv := tTest(b, se, dist)
		res.Coefficients[j] = b
		res.StdErrors[j] = se
		res.TStats[j] = t
		res.PValues[j] = pv
	}

	return res, nil
}

// tTest returns the t statistic of b and its two-sided p-value. A zero
// standard error yields an infinite statistic for a non-zero coefficient
// and NaN for a zero one.
func tTest(b, se float64, dist distuv.StudentsT) (t, p float64) {
	if se == 0 {
		if b == 0 {
			return math.NaN(), math.NaN()
		}
		return math.Inf(sign(b)), 0
	}
	t = b / se
	return t, 2 * dist.CDF(-math.Abs(t))
}

func tdist(df int) distuv.StudentsT {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
}

func rSquared(rss, sst float64) float64 {
	if sst == 0 {
		return math.NaN()
	}
	return 1 - rss/sst
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}
