package kpi

// Nombres de los cinco KPIs derivados. Coinciden con las columnas que
// consume la capa de presentación.
const (
	KPIDisponibilidad        = "Disponibilidad"
	KPIAccesibilidad         = "Accesibilidad"
	KPIRetenibilidadTecnica  = "Retenibilidad_Tecnica"
	KPIRetenibilidadUsuario  = "Retenibilidad_Usuario"
	KPIRetenibilidadPromedio = "Retenibilidad_Promedio"
)

// Nombres devuelve los cinco KPIs en orden estable de presentación.
func Nombres() []string {
	return []string{
		KPIDisponibilidad,
		KPIAccesibilidad,
		KPIRetenibilidadPromedio,
		KPIRetenibilidadTecnica,
		KPIRetenibilidadUsuario,
	}
}

// Indicadores son los cinco KPIs derivados de un conjunto de contadores,
// en porcentaje. No se garantiza algebraicamente el rango [0,100]: las
// razones encadenadas y la resta de retenibilidad pueden salirse bajo
// combinaciones patológicas y no se recortan.
type Indicadores struct {
	Disponibilidad        float64 `json:"Disponibilidad"`
	Accesibilidad         float64 `json:"Accesibilidad"`
	RetenibilidadTecnica  float64 `json:"Retenibilidad_Tecnica"`
	RetenibilidadUsuario  float64 `json:"Retenibilidad_Usuario"`
	RetenibilidadPromedio float64 `json:"Retenibilidad_Promedio"`
}

// Valor devuelve el KPI por nombre.
func (i Indicadores) Valor(nombre string) (float64, bool) {
	switch nombre {
	case KPIDisponibilidad:
		return i.Disponibilidad, true
	case KPIAccesibilidad:
		return i.Accesibilidad, true
	case KPIRetenibilidadTecnica:
		return i.RetenibilidadTecnica, true
	case KPIRetenibilidadUsuario:
		return i.RetenibilidadUsuario, true
	case KPIRetenibilidadPromedio:
		return i.RetenibilidadPromedio, true
	}
	return 0, false
}

// CalcularKPIs deriva los cinco indicadores a partir de contadores ya
// sumados al grano deseado. Es una transformación pura y determinista:
// debe invocarse después de cada agregación, nunca promediando KPIs ya
// calculados por fila (el invariante aditivo del motor).
func CalcularKPIs(c Contadores) Indicadores {
	var ind Indicadores

	ind.Disponibilidad = 100 * SafeRatio(float64(c.SamplesCellAvail), float64(c.DenomCellAvail))

	// Accesibilidad: cadena de cuatro tasas de éxito por etapa. Una etapa
	// sin tráfico anula el producto completo en lugar de fallar.
	denT1 := float64(c.RrcStpReqMoSignalling + c.RrcStpReqMoData +
		c.RrcStpReqMtAccess + c.RrcStpReqEmergency +
		c.RrcStpReqHiprioAccess + c.RrcStpReqMoVoicecall +
		c.RrcStpReqMoSms + c.RrcStpReqMps +
		c.RrcStpReqMcs + c.RrcStpReqMoVideocal)
	t1 := SafeRatio(float64(c.RrcStpSuccTot), denT1)

	denT2 := float64(c.RrcStpSuccTot + c.ReestabAccFallback + c.RrcResumeFallbackSucc)
	t2 := SafeRatio(float64(c.InitUeMsgSent), denT2)

	t3 := SafeRatio(float64(c.UeLogicalConnEstab), float64(c.InitUeMsgSent))
	t4 := SafeRatio(float64(c.UeCtxtStpRespSent), float64(c.UeCtxtStpReqRecd))

	ind.Accesibilidad = 100 * (t1 * t2 * t3 * t4)

	ind.RetenibilidadTecnica = retenibilidad(c.NgFlowRel, c.NgFlowRel-c.NgFlowRelNormal)
	ind.RetenibilidadUsuario = retenibilidad(c.NgFlowRel, c.NgFlowRel-c.NgFlowRelNormal-c.NgFlowRelAmfUeLost)

	// El promedio se calcula sobre las dos retenibilidades ya derivadas,
	// no directamente desde contadores.
	ind.RetenibilidadPromedio = (ind.RetenibilidadTecnica + ind.RetenibilidadUsuario) / 2

	return ind
}

// retenibilidad aplica 100 - 100*ratio(anormales, total) con el segundo
// respaldo explícito de estas dos fórmulas: total de liberaciones en cero
// sustituye el resultado completo por 0, no por 100.
func retenibilidad(total, anormales int64) float64 {
	if total == 0 {
		return 0
	}
	return 100 - 100*SafeRatio(float64(anormales), float64(total))
}
