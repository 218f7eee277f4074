package payment

var statusLabels = map[Status]string{
	StatusPending:   "In attesa",
	StatusCompleted: "Completato",
	StatusRejected:  "Rifiutato",
}

// Label is the Italian display name shown by clients.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}
