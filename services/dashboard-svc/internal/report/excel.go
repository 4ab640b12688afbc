package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dguevara8/ucr-electrical-project/pkg/config"
	"github.com/dguevara8/ucr-electrical-project/pkg/kpi"
)

// Colores de relleno del semáforo en formato ARGB
const (
	colorVerde      = "27AE60"
	colorAmarillo   = "F39C12"
	colorRojo       = "E74C3C"
	colorEncabezado = "2C3E50"
)

// ExcelGenerator exporta la tabla agregada a un libro XLSX con las
// celdas de KPI pintadas según su clasificación.
type ExcelGenerator struct {
	BaseGenerator
}

// NewExcelGenerator crea el generador Excel
func NewExcelGenerator(cfg config.ReportConfig) *ExcelGenerator {
	return &ExcelGenerator{BaseGenerator{cfg: cfg}}
}

// Format devuelve el formato del generador
func (g *ExcelGenerator) Format() string {
	return FormatoExcel
}

// ContentType devuelve el tipo MIME del archivo generado
func (g *ExcelGenerator) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Generate genera el libro XLSX
func (g *ExcelGenerator) Generate(ctx context.Context, datos *Datos) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	hoja := g.cfg.SheetName
	if hoja == "" {
		hoja = "KPIs"
	}

	f.NewSheet(hoja)
	f.DeleteSheet("Sheet1")

	estilos, err := g.prepararEstilos(f)
	if err != nil {
		return nil, fmt.Errorf("failed to build cell styles: %w", err)
	}

	fila := 1

	f.SetCellValue(hoja, celda(0, fila), g.Titulo(datos))
	f.MergeCell(hoja, celda(0, fila), celda(5, fila))
	fila++

	f.SetCellValue(hoja, celda(0, fila), g.Empresa(datos))
	f.SetCellValue(hoja, celda(1, fila), g.Periodo(datos))
	f.SetCellValue(hoja, celda(5, fila), time.Now().Format("02/01/2006 15:04"))
	fila += 2

	encabezados := append([]string{"Elemento"}, kpi.Nombres()...)
	for i, h := range encabezados {
		f.SetCellValue(hoja, celda(i, fila), h)
	}
	f.SetCellStyle(hoja, celda(0, fila), celda(len(encabezados)-1, fila), estilos.encabezado)
	fila++

	for _, agregado := range datos.Filas {
		f.SetCellValue(hoja, celda(0, fila), etiquetaFila(agregado))

		for i, nombre := range kpi.Nombres() {
			valor, _ := agregado.Valor(nombre)
			col := i + 1
			f.SetCellValue(hoja, celda(col, fila), valor)

			if estado, ok := g.Estado(datos, nombre, valor); ok {
				f.SetCellStyle(hoja, celda(col, fila), celda(col, fila), estilos.porEstado[estado])
			}
		}
		fila++
	}

	f.SetColWidth(hoja, "A", "A", 28)
	f.SetColWidth(hoja, "B", "F", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

type estilosExcel struct {
	encabezado int
	porEstado  map[kpi.Estado]int
}

func (g *ExcelGenerator) prepararEstilos(f *excelize.File) (*estilosExcel, error) {
	encabezado, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{colorEncabezado}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	estilos := &estilosExcel{
		encabezado: encabezado,
		porEstado:  make(map[kpi.Estado]int, 3),
	}

	colores := map[kpi.Estado]string{
		kpi.EstadoVerde:    colorVerde,
		kpi.EstadoAmarillo: colorAmarillo,
		kpi.EstadoRojo:     colorRojo,
	}

	for estado, color := range colores {
		id, err := f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			NumFmt:    2,
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			return nil, err
		}
		estilos.porEstado[estado] = id
	}

	return estilos, nil
}

// celda forma la dirección de una celda desde índices cero-basados de columna
func celda(col, fila int) string {
	nombre := ""
	for {
		nombre = string(rune('A'+col%26)) + nombre
		col = col/26 - 1
		if col < 0 {
			break
		}
	}
	return fmt.Sprintf("%s%d", nombre, fila)
}
