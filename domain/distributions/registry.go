package distributions

import (
	"fmt"
	"math"
	"sort"

	"gostatlab/domain/core"
)

// Params holds named law parameters. Missing parameters take the law's
// default.
type Params map[string]float64

func (p Params) get(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

func (p Params) getInt(name string, def int) (int, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	if v != math.Trunc(v) {
		return 0, core.NewDomainError(name, v, "an integer")
	}
	return int(v), nil
}

type builder func(Params) (Series, error)

var registry = map[string]builder{
	"dirac": func(p Params) (Series, error) {
		return Dirac(p.get("a", 0), arange(-5, 6)), nil
	},
	"uniform_discrete": func(p Params) (Series, error) {
		n, err := p.getInt("n", 10)
		if err != nil {
			return Series{}, err
		}
		return DiscreteUniform(n)
	},
	"binomial": func(p Params) (Series, error) {
		n, err := p.getInt("n", 20)
		if err != nil {
			return Series{}, err
		}
		return Binomial(n, p.get("p", 0.4))
	},
	"poisson": func(p Params) (Series, error) {
		upto, err := p.getInt("upto", 20)
		if err != nil {
			return Series{}, err
		}
		return Poisson(p.get("lambda", 5), upto)
	},
	"zipf": func(p Params) (Series, error) {
		size, err := p.getInt("size", 20)
		if err != nil {
			return Series{}, err
		}
		return Zipf(p.get("a", 2), size)
	},
	"poisson_continuous": func(p Params) (Series, error) {
		return PoissonContinuous(p.get("lambda", 5))
	},
	"normal": func(p Params) (Series, error) {
		return Normal(p.get("mu", 0), p.get("sigma", 1))
	},
	"lognormal": func(p Params) (Series, error) {
		return LogNormal(p.get("mu", 0), p.get("sigma", 1))
	},
	"uniform_continuous": func(p Params) (Series, error) {
		return UniformContinuous(p.get("a", 0), p.get("b", 1))
	},
	"chi2": func(p Params) (Series, error) {
		return ChiSquared(p.get("k", 3))
	},
	"pareto": func(p Params) (Series, error) {
		return Pareto(p.get("alpha", 3))
	},
}

// Names lists the registered laws in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName builds the named law with params.
func ByName(name string, params Params) (Series, error) {
	build, ok := registry[name]
	if !ok {
		return Series{}, fmt.Errorf("%w: distribution %q", core.ErrNotFound, name)
	}
	return build(params)
}
