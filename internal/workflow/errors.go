package workflow

import "fmt"

// Kind classe les erreurs du workflow pour que l'appelant puisse
// choisir le bon code HTTP sans inspecter de texte
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindValidation        Kind = "validation"
	KindStorage           Kind = "storage"
	KindUnauthorized      Kind = "unauthorized"
)

// Error est une erreur typée du workflow, avec détail par champ
// pour les erreurs de validation
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func notFoundErr(id int64) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("demande %d introuvable", id)}
}

func invalidTransitionErr(current, requested string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("transition illégale: %s → %s", current, requested),
	}
}

func validationErr(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "données invalides", Fields: fields}
}

func storageErr(err error) *Error {
	return &Error{Kind: KindStorage, Message: "erreur stockage", cause: err}
}

func unauthorizedErr() *Error {
	return &Error{Kind: KindUnauthorized, Message: "identifiant admin manquant"}
}

// KindOf retourne la catégorie d'une erreur workflow, ou KindStorage
// pour toute erreur inconnue
func KindOf(err error) Kind {
	if werr, ok := err.(*Error); ok {
		return werr.Kind
	}
	return KindStorage
}

// IsKind teste la catégorie d'une erreur
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
