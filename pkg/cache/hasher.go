package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// FiltroHash calcula un hash determinístico a partir de las partes de un
// filtro de consulta, para usarlo como llave de caché. Las partes se
// ordenan para que el orden de construcción no cambie la llave.
func FiltroHash(parts ...string) string {
	sorted := make([]string, len(parts))
	copy(sorted, parts)
	sort.Strings(sorted)

	hash := sha256.Sum256([]byte(strings.Join(sorted, ";")))
	return hex.EncodeToString(hash[:16])
}

// BuildAggregateKey construye la llave de caché para un resultado agregado
func BuildAggregateKey(scope, filtroHash string) string {
	return fmt.Sprintf("agg:%s:%s", scope, filtroHash)
}

// BuildReportKey construye la llave de caché para un reporte generado
func BuildReportKey(format, filtroHash string) string {
	return fmt.Sprintf("report:%s:%s", format, filtroHash)
}

// QuickHash hash rápido para datos arbitrarios
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash hash corto (16 caracteres)
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
