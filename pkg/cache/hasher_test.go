package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiltroHash_Deterministico(t *testing.T) {
	a := FiltroHash("desde=2025-03-01", "hasta=2025-03-31", "cluster=Cartago")
	b := FiltroHash("cluster=Cartago", "desde=2025-03-01", "hasta=2025-03-31")

	// El orden de las partes no cambia la llave
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
}

func TestFiltroHash_Distinto(t *testing.T) {
	a := FiltroHash("cluster=Cartago")
	b := FiltroHash("cluster=Alajuela")
	assert.NotEqual(t, a, b)
}

func TestBuildKeys(t *testing.T) {
	assert.Equal(t, "agg:diario:abc", BuildAggregateKey("diario", "abc"))
	assert.Equal(t, "report:excel:abc", BuildReportKey("excel", "abc"))
}

func TestHashes(t *testing.T) {
	assert.Len(t, QuickHash([]byte("x")), 64)
	assert.Len(t, ShortHash([]byte("x")), 16)
	assert.NotEqual(t, QuickHash([]byte("x")), QuickHash([]byte("y")))
}
