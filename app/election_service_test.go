package app

import (
	"testing"

	"gostatlab/domain/core"
	"gostatlab/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultsTable(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.NewTable(
		[]string{
			ColumnDepartment, ColumnDepartmentLabel, ColumnRegistered, ColumnVoters,
			ColumnBlank, ColumnVoid, ColumnCast, ColumnAbstentions, "ALICE", "BOB",
		},
		[][]string{
			{"01", "Ain", "100", "80", "2", "3", "75", "20", "50", "25"},
			{"01", "Ain", "50", "40", "1", "1", "38", "10", "18", "20"},
			{"02", "Aisne", "0", "0", "0", "0", "0", "0", "0", "0"},
		},
	)
	require.NoError(t, err)
	return table
}

func TestAnalyze_Overview(t *testing.T) {
	summary, err := NewElectionService().Analyze(resultsTable(t))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 10, summary.Columns)
	require.Len(t, summary.Kinds, 10)
	assert.Equal(t, ColumnInfo{Name: ColumnDepartmentLabel, Kind: dataset.KindText}, summary.Kinds[1])
	assert.Equal(t, ColumnInfo{Name: ColumnRegistered, Kind: dataset.KindInteger}, summary.Kinds[2])

	require.Len(t, summary.Sums, 9)
	assert.Equal(t, ColumnSum{Column: ColumnRegistered, Sum: 150}, summary.Sums[1])
	assert.Equal(t, ColumnSum{Column: "BOB", Sum: 45}, summary.Sums[8])

	assert.Equal(t, []string{"ALICE", "BOB"}, summary.Candidates)
}

func TestAnalyze_TurnoutAndShares(t *testing.T) {
	summary, err := NewElectionService().Analyze(resultsTable(t))
	require.NoError(t, err)

	require.Len(t, summary.Turnout, 3)
	assert.Equal(t, Turnout{Department: "Ain", Registered: 100, Voters: 80}, summary.Turnout[0])

	// The empty Aisne row has no ballots to split.
	require.Len(t, summary.Shares, 2)
	assert.Equal(t, BallotShares{Department: "Ain", Blank: 0.02, Void: 0.03, Cast: 0.75, Abstentions: 0.2}, summary.Shares[0])
	assert.Equal(t, BallotShares{Department: "Ain", Blank: 0.02, Void: 0.02, Cast: 0.76, Abstentions: 0.2}, summary.Shares[1])
}

func TestAnalyze_CandidateTotals(t *testing.T) {
	summary, err := NewElectionService().Analyze(resultsTable(t))
	require.NoError(t, err)

	want := []CandidateVotes{
		{Candidate: "ALICE", Votes: 68, Share: 0.602},
		{Candidate: "BOB", Votes: 45, Share: 0.398},
	}
	require.Len(t, summary.ByDepartment, 1)
	assert.Equal(t, "Ain", summary.ByDepartment[0].Department)
	assert.Equal(t, want, summary.ByDepartment[0].Votes)
	assert.Equal(t, want, summary.National)
}

func TestAnalyze_EmptyCellsCountAsZero(t *testing.T) {
	table, err := dataset.NewTable(
		[]string{ColumnDepartmentLabel, ColumnRegistered, ColumnVoters, ColumnBlank, ColumnVoid, ColumnCast, ColumnAbstentions, "ALICE"},
		[][]string{{"Ain", "10", "8", "", "0", "8", "2", "8"}},
	)
	require.NoError(t, err)

	summary, err := NewElectionService().Analyze(table)
	require.NoError(t, err)
	assert.Equal(t, BallotShares{Department: "Ain", Blank: 0, Void: 0, Cast: 0.8, Abstentions: 0.2}, summary.Shares[0])
	assert.Equal(t, []CandidateVotes{{Candidate: "ALICE", Votes: 8, Share: 1}}, summary.National)
}

func TestAnalyze_MissingColumn(t *testing.T) {
	table, err := dataset.NewTable([]string{ColumnDepartmentLabel, ColumnRegistered}, [][]string{{"Ain", "1"}})
	require.NoError(t, err)

	_, err = NewElectionService().Analyze(table)
	assert.ErrorIs(t, err, core.ErrColumnNotFound)

	_, err = NewElectionService().Analyze(nil)
	assert.Error(t, err)
}
