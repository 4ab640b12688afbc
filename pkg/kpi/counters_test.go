package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSiteID(t *testing.T) {
	tests := []struct {
		entrada  string
		esperado SiteID
		falla    bool
	}{
		{"12", "12", false},
		{" 7 ", "7", false},
		{"007", "7", false},
		{"0", "0", false},
		{"", "", true},
		{"abc", "", true},
		{"-3", "", true},
		{"3.5", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.entrada, func(t *testing.T) {
			id, err := ParseSiteID(tt.entrada)
			if tt.falla {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.esperado, id)
		})
	}
}

func TestParseSiteID_Inyectivo(t *testing.T) {
	// Representaciones distintas del mismo entero colapsan a la misma
	// forma canónica, condición para que los joins no se partan.
	a, err := ParseSiteID("07")
	require.NoError(t, err)
	b, err := ParseSiteID("7")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, SiteIDFromInt(7), a)
}

func TestSiteID_Int(t *testing.T) {
	n, err := SiteIDFromInt(42).Int()
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = SiteID("x").Int()
	assert.Error(t, err)
}

func TestContadores_Sumar(t *testing.T) {
	var acc Contadores
	acc.Sumar(Contadores{DenomCellAvail: 1, SamplesCellAvail: 2, NgFlowRel: 3, NgFlowRelAmfOther: 7})
	acc.Sumar(Contadores{DenomCellAvail: 10, SamplesCellAvail: 20, NgFlowRel: 30, NgFlowRelAmfOther: 70})

	assert.Equal(t, int64(11), acc.DenomCellAvail)
	assert.Equal(t, int64(22), acc.SamplesCellAvail)
	assert.Equal(t, int64(33), acc.NgFlowRel)
	// Los contadores que ninguna fórmula lee también se acumulan.
	assert.Equal(t, int64(77), acc.NgFlowRelAmfOther)
}
