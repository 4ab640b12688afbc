package kpi

// Estado es la clasificación ordinal de un KPI contra sus umbrales.
type Estado string

const (
	EstadoRojo     Estado = "Rojo"
	EstadoAmarillo Estado = "Amarillo"
	EstadoVerde    Estado = "Verde"
)

// Umbral es el par verde/rojo de un KPI.
type Umbral struct {
	Verde float64 `json:"verde"`
	Rojo  float64 `json:"rojo"`
}

// Umbrales mapea nombre de KPI a su par de umbrales. El motor lo trata
// como entrada fija de solo lectura; los llamadores lo inyectan desde
// configuración.
type Umbrales map[string]Umbral

// UmbralesPorDefecto reproduce la tabla de semáforo original.
func UmbralesPorDefecto() Umbrales {
	return Umbrales{
		KPIDisponibilidad:        {Verde: 99.0, Rojo: 90},
		KPIAccesibilidad:         {Verde: 99.2, Rojo: 90},
		KPIRetenibilidadPromedio: {Verde: 98.9, Rojo: 90},
		KPIRetenibilidadTecnica:  {Verde: 99.0, Rojo: 90},
		KPIRetenibilidadUsuario:  {Verde: 98.8, Rojo: 90},
	}
}

// Clasificar evalúa el semáforo de un valor. El orden de evaluación
// importa: rojo se comprueba primero, así un valor que satisfaga ambas
// condiciones bajo umbrales incoherentes resuelve a Rojo. Valores fuera
// de [0,100] clasifican igual (p.ej. -5 es Rojo con cualquier umbral
// rojo positivo).
func Clasificar(valor float64, u Umbral) Estado {
	switch {
	case valor < u.Rojo:
		return EstadoRojo
	case valor >= u.Verde:
		return EstadoVerde
	default:
		return EstadoAmarillo
	}
}

// FilaClasificada es un agregado más su columna Estado para un KPI.
type FilaClasificada struct {
	Agregado
	KPI    string  `json:"KPI"`
	Valor  float64 `json:"Valor"`
	Estado Estado  `json:"Estado"`
}

// ClasificarFilas añade la columna Estado a una tabla de agregados para
// el KPI indicado. Función pura por fila; no muta los umbrales ni los
// infiere. Un nombre de KPI desconocido produce nil.
func ClasificarFilas(filas []Agregado, nombre string, umbrales Umbrales) []FilaClasificada {
	u, ok := umbrales[nombre]
	if !ok {
		return nil
	}

	out := make([]FilaClasificada, 0, len(filas))
	for _, f := range filas {
		valor, ok := f.Valor(nombre)
		if !ok {
			return nil
		}
		out = append(out, FilaClasificada{
			Agregado: f,
			KPI:      nombre,
			Valor:    valor,
			Estado:   Clasificar(valor, u),
		})
	}
	return out
}
