package sos

import (
	"testing"

	"github.com/GrupoDiana/brt/internal/mathutil"
	"github.com/stretchr/testify/require"
)

func flatCoeffs(gain float64) mathutil.BiquadCoeffs {
	return mathutil.BiquadCoeffs{B0: gain, A0: 1}
}

func buildTable(t *testing.T) *Table {
	t.Helper()
	table := NewTable(1.95)
	table.BeginSetup()
	for _, d := range []float64{0.2, 1.0} {
		for _, az := range []float64{-90, 0, 90} {
			gain := 1.0 + d + az/90
			require.NoError(t, table.AddCoefficients(Entry{
				Distance:          d,
				InterauralAzimuth: az,
				Left0:             flatCoeffs(gain),
				Left1:             mathutil.IdentityBiquad,
				Right0:            flatCoeffs(gain),
				Right1:            mathutil.IdentityBiquad,
			}))
		}
	}
	require.NoError(t, table.EndSetup())
	return table
}

func TestGetCoefficientsBypassesBeyondNearFieldLimit(t *testing.T) {
	table := buildTable(t)
	s0, s1, err := table.GetCoefficients(0, 2.0, 0)
	require.NoError(t, err)
	require.Equal(t, mathutil.IdentityBiquad, s0)
	require.Equal(t, mathutil.IdentityBiquad, s1)
}

func TestGetCoefficientsExactCellMatchesStoredValue(t *testing.T) {
	table := buildTable(t)
	s0, _, err := table.GetCoefficients(0, 1.0, 0)
	require.NoError(t, err)
	require.InDelta(t, 2.0, s0.B0, 1e-9)
}

func TestGetCoefficientsInterpolatesBetweenCells(t *testing.T) {
	table := buildTable(t)
	s0, _, err := table.GetCoefficients(0, 0.6, 0)
	require.NoError(t, err)
	// midpoint between d=0.2 (gain 1.2) and d=1.0 (gain 2.0) -> ~1.6
	require.InDelta(t, 1.6, s0.B0, 0.05)
}

func TestQueryBeforeReadyErrors(t *testing.T) {
	table := NewTable(1.95)
	_, _, err := table.GetCoefficients(0, 0.5, 0)
	require.Error(t, err)
}
