package apperror

import (
	"errors"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConfirmation
	KindPersistence
	KindAuth
	KindNotFound
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfirmation:
		return "confirmation"
	case KindPersistence:
		return "persistence"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Message is the user-facing (Italian) text shown in the client toast.
func (k Kind) Message() string {
	switch k {
	case KindValidation:
		return "Dati non validi"
	case KindConfirmation:
		return "Il pagamento non può essere aggiornato"
	case KindPersistence:
		return "Errore di salvataggio"
	case KindAuth:
		return "Sessione non valida, effettua di nuovo l'accesso"
	case KindNotFound:
		return "Elemento non trovato"
	case KindForbidden:
		return "Operazione non consentita"
	default:
		return "Errore imprevisto"
	}
}

// Error is the single error type returned by use cases.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a bare kind sentinel (ErrValidation, ErrConfirmation, ...).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrConfirmation = &Error{Kind: KindConfirmation}
	ErrPersistence  = &Error{Kind: KindPersistence}
	ErrAuth         = &Error{Kind: KindAuth}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrForbidden    = &Error{Kind: KindForbidden}
)

func Validation(op, msg string) error   { return &Error{Kind: KindValidation, Op: op, Msg: msg} }
func Confirmation(op, msg string) error { return &Error{Kind: KindConfirmation, Op: op, Msg: msg} }
func Auth(op, msg string) error         { return &Error{Kind: KindAuth, Op: op, Msg: msg} }
func NotFound(op, msg string) error     { return &Error{Kind: KindNotFound, Op: op, Msg: msg} }
func Forbidden(op, msg string) error    { return &Error{Kind: KindForbidden, Op: op, Msg: msg} }

// Persistence wraps a storage failure. Already-kinded errors pass through.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}
