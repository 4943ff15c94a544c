package models

// LegacyReservationView mirrors the field names the previous front end
// consumed. It exists only at the HTTP boundary; the internal model carries
// canonical names. Do not add new aliases here.
type LegacyReservationView struct {
	DetallesReserva     PricingBreakdown `json:"detallesReserva"`
	ExtrasSeleccionados []SelectedExtra  `json:"extrasSeleccionados"`
	ConductorPrincipal  *Conductor       `json:"conductorPrincipal,omitempty"`
	Coche               *Vehicle         `json:"coche,omitempty"`
	LugarRecogida       string           `json:"lugarRecogida,omitempty"`
	LugarDevolucion     string           `json:"lugarDevolucion,omitempty"`
	Paso                Step             `json:"paso"`
}

// ToLegacyView adapts the canonical read model for legacy consumers.
func ToLegacyView(v ReservationView) LegacyReservationView {
	out := LegacyReservationView{
		DetallesReserva:     v.Pricing,
		ExtrasSeleccionados: v.Extras,
		ConductorPrincipal:  v.Conductor,
		Paso:                v.Step,
	}
	if v.Base != nil {
		veh := v.Base.Vehicle
		out.Coche = &veh
		out.LugarRecogida = v.Base.PickupLocation
		out.LugarDevolucion = v.Base.ReturnLocation
	}
	return out
}
