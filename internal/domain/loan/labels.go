package loan

var typeLabels = map[Type]string{
	TypePersonal: "Personale",
	TypeMortgage: "Mutuo",
	TypeAuto:     "Auto",
	TypeStudent:  "Universitario",
	TypeBusiness: "Aziendale",
}

var statusLabels = map[Status]string{
	StatusActive:  "Attivo",
	StatusPaid:    "Estinto",
	StatusOverdue: "Scaduto",
}

// Label is the Italian display name shown by clients.
func (t Type) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}
