package kpi

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SiteID identificador canónico de sitio. La conversión desde texto o
// entero se hace exactamente una vez en cada frontera de ingestión
// (carga, join, pertenencia a cluster); después el valor circula tal cual.
type SiteID string

// ParseSiteID normaliza una representación textual de sitio a su forma
// canónica (entero positivo sin ceros a la izquierda).
func ParseSiteID(s string) (SiteID, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return "", fmt.Errorf("site id %q no es numérico: %w", s, err)
	}
	if n < 0 {
		return "", fmt.Errorf("site id %d negativo", n)
	}
	return SiteID(strconv.Itoa(n)), nil
}

// SiteIDFromInt construye el identificador canónico desde un entero.
func SiteIDFromInt(n int) SiteID {
	return SiteID(strconv.Itoa(n))
}

// Int devuelve el valor entero del identificador.
func (id SiteID) Int() (int, error) {
	return strconv.Atoi(string(id))
}

func (id SiteID) String() string {
	return string(id)
}

// Contadores agrupa los contadores crudos de una fila de medición.
// Son acumulativos: agregar a cualquier grano es sumar campo a campo.
// Los dos contadores AMF_OTHER se cargan y se suman pero ninguna fórmula
// los lee, igual que en el esquema fuente.
type Contadores struct {
	DenomCellAvail        int64 `json:"DENOM_CELL_AVAIL"`
	SamplesCellAvail      int64 `json:"SAMPLES_CELL_AVAIL"`
	NgFlowRelAmfUeLost    int64 `json:"NG_FLOW_REL_AMF_UE_LOST"`
	NgFlowRelNormal       int64 `json:"NG_FLOW_REL_NORMAL"`
	NgFlowRel             int64 `json:"NG_FLOW_REL"`
	NgFlowRelAmfOther     int64 `json:"NG_FLOW_REL_AMF_OTHER"`
	NgFlowRelAmfOther5qi1 int64 `json:"NG_FLOW_REL_AMF_OTHER_5QI1"`
	RrcStpReqMoSignalling int64 `json:"NRRCC_RRC_STPREQ_MO_SIGNALLING"`
	RrcStpReqMoData       int64 `json:"NRRCC_RRC_STPREQ_MO_DATA"`
	RrcStpReqMtAccess     int64 `json:"NRRCC_RRC_STPREQ_MT_ACCESS"`
	RrcStpReqEmergency    int64 `json:"NRRCC_RRC_STPREQ_EMERGENCY"`
	RrcStpReqHiprioAccess int64 `json:"NRRCC_RRC_STPREQ_HIPRIO_ACCESS"`
	RrcStpReqMoVoicecall  int64 `json:"NRRCC_RRC_STPREQ_MO_VOICECALL"`
	RrcStpReqMoSms        int64 `json:"NRRCC_RRC_STPREQ_MO_SMS"`
	RrcStpReqMps          int64 `json:"NRRCC_RRC_STPREQ_MPS"`
	RrcStpReqMcs          int64 `json:"NRRCC_RRC_STPREQ_MCS"`
	RrcStpReqMoVideocal   int64 `json:"NRRCC_RRC_STPREQ_MO_VIDEOCAL"`
	RrcStpSuccTot         int64 `json:"NRRCC_RRC_STPSUCC_TOT"`
	ReestabAccFallback    int64 `json:"REESTAB_ACC_FALLBACK"`
	RrcResumeFallbackSucc int64 `json:"NRRCC_RRC_RESUME_FALLBACK_SUCC"`
	InitUeMsgSent         int64 `json:"NNGCC_INIT_UE_MSG_SENT"`
	UeLogicalConnEstab    int64 `json:"NNGCC_UE_LOGICAL_CONN_ESTAB"`
	UeCtxtStpReqRecd      int64 `json:"NNGCC_UE_CTXT_STP_REQ_RECD"`
	UeCtxtStpRespSent     int64 `json:"NNGCC_UE_CTXT_STP_RESP_SENT"`
}

// Sumar acumula los contadores de o sobre c.
func (c *Contadores) Sumar(o Contadores) {
	c.DenomCellAvail += o.DenomCellAvail
	c.SamplesCellAvail += o.SamplesCellAvail
	c.NgFlowRelAmfUeLost += o.NgFlowRelAmfUeLost
	c.NgFlowRelNormal += o.NgFlowRelNormal
	c.NgFlowRel += o.NgFlowRel
	c.NgFlowRelAmfOther += o.NgFlowRelAmfOther
	c.NgFlowRelAmfOther5qi1 += o.NgFlowRelAmfOther5qi1
	c.RrcStpReqMoSignalling += o.RrcStpReqMoSignalling
	c.RrcStpReqMoData += o.RrcStpReqMoData
	c.RrcStpReqMtAccess += o.RrcStpReqMtAccess
	c.RrcStpReqEmergency += o.RrcStpReqEmergency
	c.RrcStpReqHiprioAccess += o.RrcStpReqHiprioAccess
	c.RrcStpReqMoVoicecall += o.RrcStpReqMoVoicecall
	c.RrcStpReqMoSms += o.RrcStpReqMoSms
	c.RrcStpReqMps += o.RrcStpReqMps
	c.RrcStpReqMcs += o.RrcStpReqMcs
	c.RrcStpReqMoVideocal += o.RrcStpReqMoVideocal
	c.RrcStpSuccTot += o.RrcStpSuccTot
	c.ReestabAccFallback += o.ReestabAccFallback
	c.RrcResumeFallbackSucc += o.RrcResumeFallbackSucc
	c.InitUeMsgSent += o.InitUeMsgSent
	c.UeLogicalConnEstab += o.UeLogicalConnEstab
	c.UeCtxtStpReqRecd += o.UeCtxtStpReqRecd
	c.UeCtxtStpRespSent += o.UeCtxtStpRespSent
}

// Registro es una fila cruda de contadores por (fecha, hora, sitio, sector).
// Inmutable una vez cargada.
type Registro struct {
	Fecha    time.Time `json:"Date"`
	Hora     string    `json:"Hora"`
	SiteID   SiteID    `json:"Site Id"`
	Sector   string    `json:"Sector"`
	SiteName string    `json:"Site Name,omitempty"`
	Contadores
}

// Sitio es una entrada del directorio de sitios. Las coordenadas pueden
// faltar; un sitio sin coordenadas se excluye de las vistas de mapa pero
// sigue participando en los agregados numéricos.
type Sitio struct {
	ID       SiteID   `json:"Site Id"`
	Nombre   string   `json:"Nombre"`
	Latitud  *float64 `json:"Latitud"`
	Longitud *float64 `json:"Longitud"`
}
