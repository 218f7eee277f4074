package notify

import "loan-tracker/internal/realtime"

// Toast is the in-app notification shown for a realtime event.
type Toast struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

const paymentRequestTitle = "Nuova Richiesta di Pagamento"

func ToastFor(ev realtime.Event) (Toast, bool) {
	if ev.Type != realtime.EventPaymentInserted {
		return Toast{}, false
	}
	return Toast{Title: paymentRequestTitle, Body: "Ricevuta una richiesta per: " + ev.LoanName}, true
}
