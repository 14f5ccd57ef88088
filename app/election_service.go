package app

import (
	"math"

	"gostatlab/domain/core"
	"gostatlab/domain/dataset"
	"gostatlab/internal"
	"gostatlab/internal/errors"
)

// Columns of the presidential election results file
const (
	ColumnDepartment      = "Département"
	ColumnDepartmentLabel = "Libellé du département"
	ColumnRegistered      = "Inscrits"
	ColumnVoters          = "Votants"
	ColumnBlank           = "Blancs"
	ColumnVoid            = "Nuls"
	ColumnCast            = "Exprimés"
	ColumnAbstentions     = "Abstentions"
	ColumnTownName        = "Nom de la commune"
	ColumnTownCode        = "Code commune"
)

// SharePrecision is the number of decimals kept in vote shares.
const SharePrecision = 3

// NonCandidateColumns are the numeric columns that never hold candidate votes.
var NonCandidateColumns = []string{
	ColumnDepartment, ColumnDepartmentLabel, ColumnRegistered, ColumnVoters,
	ColumnBlank, ColumnVoid, ColumnCast, ColumnAbstentions, ColumnTownName, ColumnTownCode,
}

// ColumnInfo is the inferred nature of one column
type ColumnInfo struct {
	Name string             `json:"name"`
	Kind dataset.ColumnKind `json:"kind"`
}

// ColumnSum is the total of a numeric column
type ColumnSum struct {
	Column string  `json:"column"`
	Sum    float64 `json:"sum"`
}

// Turnout pairs registered voters with actual voters for one row
type Turnout struct {
	Department string  `json:"department"`
	Registered float64 `json:"registered"`
	Voters     float64 `json:"voters"`
}

// BallotShares splits one row's ballots and abstentions into shares of their total
type BallotShares struct {
	Department  string  `json:"department"`
	Blank       float64 `json:"blank"`
	Void        float64 `json:"void"`
	Cast        float64 `json:"cast"`
	Abstentions float64 `json:"abstentions"`
}

// CandidateVotes is the vote total and share of one candidate
type CandidateVotes struct {
	Candidate string  `json:"candidate"`
	Votes     float64 `json:"votes"`
	Share     float64 `json:"share"`
}

// DepartmentVotes lists candidate votes within one department
type DepartmentVotes struct {
	Department string           `json:"department"`
	Votes      []CandidateVotes `json:"votes"`
}

// ElectionSummary is the full analysis of a results table
type ElectionSummary struct {
	Rows         int               `json:"rows"`
	Columns      int               `json:"columns"`
	Kinds        []ColumnInfo      `json:"kinds"`
	Sums         []ColumnSum       `json:"sums"`
	Turnout      []Turnout         `json:"turnout"`
	Shares       []BallotShares    `json:"shares"`
	Candidates   []string          `json:"candidates"`
	ByDepartment []DepartmentVotes `json:"by_department"`
	National     []CandidateVotes  `json:"national"`
}

// ElectionService analyzes election results tables
type ElectionService struct {
	logger *internal.Logger
}

// NewElectionService creates an election results service
func NewElectionService() *ElectionService {
	return &ElectionService{logger: internal.DefaultLogger.WithComponent("Elections")}
}

// Analyze computes dimensions, column kinds, sums, per-row turnout and
// ballot shares, and candidate totals per department and nationally.
func (s *ElectionService) Analyze(table *dataset.Table) (*ElectionSummary, error) {
	if table == nil {
		return nil, errors.InvalidInput("results table is required")
	}
	cols, err := s.loadColumns(table)
	if err != nil {
		return nil, errors.Wrap(err, "missing election column")
	}

	rows, ncols := table.Dimensions()
	summary := &ElectionSummary{Rows: rows, Columns: ncols}

	kinds := table.ColumnKinds()
	for _, h := range table.Headers {
		summary.Kinds = append(summary.Kinds, ColumnInfo{Name: h, Kind: kinds[h]})
	}

	numeric := table.NumericColumns()
	values := make(map[string][]float64, len(numeric))
	for _, name := range numeric {
		v, err := table.NumericColumn(name)
		if err != nil {
			return nil, err
		}
		values[name] = v
		summary.Sums = append(summary.Sums, ColumnSum{Column: name, Sum: nanSum(v)})
	}

	for i := range table.Rows {
		dept := cols.labels[i]
		summary.Turnout = append(summary.Turnout, Turnout{
			Department: dept,
			Registered: zeroNaN(cols.registered[i]),
			Voters:     zeroNaN(cols.voters[i]),
		})

		blank, void, cast, abst := zeroNaN(cols.blank[i]), zeroNaN(cols.void[i]), zeroNaN(cols.cast[i]), zeroNaN(cols.abstentions[i])
		total := blank + void + cast + abst
		if total == 0 {
			continue
		}
		summary.Shares = append(summary.Shares, BallotShares{
			Department:  dept,
			Blank:       core.Round(blank/total, SharePrecision),
			Void:        core.Round(void/total, SharePrecision),
			Cast:        core.Round(cast/total, SharePrecision),
			Abstentions: core.Round(abst/total, SharePrecision),
		})
	}

	summary.Candidates = candidateColumns(numeric)

	// Departments in first-seen order.
	var order []string
	rowsByDept := map[string][]int{}
	for i, dept := range cols.labels {
		if _, ok := rowsByDept[dept]; !ok {
			order = append(order, dept)
		}
		rowsByDept[dept] = append(rowsByDept[dept], i)
	}
	for _, dept := range order {
		votes := tally(summary.Candidates, values, rowsByDept[dept])
		if votes == nil {
			s.logger.Debug("Department %s has no candidate votes, skipped", dept)
			continue
		}
		summary.ByDepartment = append(summary.ByDepartment, DepartmentVotes{Department: dept, Votes: votes})
	}

	all := make([]int, rows)
	for i := range all {
		all[i] = i
	}
	summary.National = tally(summary.Candidates, values, all)

	s.logger.Info("Analyzed %d rows, %d candidates, %d departments", rows, len(summary.Candidates), len(summary.ByDepartment))
	return summary, nil
}

type electionColumns struct {
	labels                         []string
	registered, voters             []float64
	blank, void, cast, abstentions []float64
}

func (s *ElectionService) loadColumns(table *dataset.Table) (*electionColumns, error) {
	labels, err := table.Column(ColumnDepartmentLabel)
	if err != nil {
		return nil, err
	}
	cols := &electionColumns{labels: labels}
	targets := []struct {
		name string
		dst  *[]float64
	}{
		{ColumnRegistered, &cols.registered},
		{ColumnVoters, &cols.voters},
		{ColumnBlank, &cols.blank},
		{ColumnVoid, &cols.void},
		{ColumnCast, &cols.cast},
		{ColumnAbstentions, &cols.abstentions},
	}
	for _, t := range targets {
		v, err := table.NumericColumn(t.name)
		if err != nil {
			return nil, err
		}
		*t.dst = v
	}
	return cols, nil
}

func candidateColumns(numeric []string) []string {
	excluded := make(map[string]bool, len(NonCandidateColumns))
	for _, c := range NonCandidateColumns {
		excluded[c] = true
	}
	var out []string
	for _, c := range numeric {
		if !excluded[c] {
			out = append(out, c)
		}
	}
	return out
}

// tally sums candidate votes over rows. It returns nil when no vote was
// recorded.
func tally(candidates []string, values map[string][]float64, rows []int) []CandidateVotes {
	out := make([]CandidateVotes, len(candidates))
	total := 0.0
	for j, c := range candidates {
		sum := 0.0
		for _, i := range rows {
			sum += zeroNaN(values[c][i])
		}
		out[j] = CandidateVotes{Candidate: c, Votes: sum}
		total += sum
	}
	if total == 0 {
		return nil
	}
	for j := range out {
		out[j].Share = core.Round(out[j].Votes/total, SharePrecision)
	}
	return out
}

func nanSum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += zeroNaN(v)
	}
	return sum
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
