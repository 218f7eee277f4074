package user

// View is the capability set a role gets. Debtor and creditor screens are two
// configurations of the same view, not two types. Both roles create loans:
// creditors lend, debtors self-report. Creditors must name the debtor.
type View struct {
	Role                  Role `json:"role"`
	CanCreateLoan         bool `json:"can_create_loan"`
	MustSelectDebtor      bool `json:"must_select_debtor"`
	CanSubmitPayment      bool `json:"can_submit_payment"`
	CanConfirmPayment     bool `json:"can_confirm_payment"`
	ReceivesPaymentAlerts bool `json:"receives_payment_alerts"`
}

var views = map[Role]View{
	RoleDebtor: {
		Role:             RoleDebtor,
		CanCreateLoan:    true,
		CanSubmitPayment: true,
	},
	RoleCreditor: {
		Role:                  RoleCreditor,
		CanCreateLoan:         true,
		MustSelectDebtor:      true,
		CanSubmitPayment:      true,
		CanConfirmPayment:     true,
		ReceivesPaymentAlerts: true,
	},
}

// ViewFor returns the zero View (no capabilities) for unknown roles.
func ViewFor(r Role) View { return views[r] }
