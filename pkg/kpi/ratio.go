// Package kpi implementa el motor de indicadores de calidad de red:
// razones seguras, fórmulas compuestas, agregación aditiva por grano
// y clasificación por semáforo.
package kpi

// SafeRatio divide num entre den devolviendo 0 cuando el denominador es 0.
// Es la salvaguarda universal del calculador: sin tráfico que medir, el
// indicador queda plano en 0 en lugar de indefinido.
func SafeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// SafeRatioSlice aplica SafeRatio elemento a elemento sobre secuencias
// alineadas. Entradas de largo distinto producen nil.
func SafeRatioSlice(num, den []float64) []float64 {
	if len(num) != len(den) {
		return nil
	}
	out := make([]float64, len(num))
	for i := range num {
		out[i] = SafeRatio(num[i], den[i])
	}
	return out
}
