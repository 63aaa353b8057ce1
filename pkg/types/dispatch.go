package types

// DispatchKind identifies the template of an outbound notification email.
type DispatchKind string

// Dispatch kinds produced by the core.
const (
	// DispatchSolicitObject confirms a solicitation to the applicant who
	// made it, carrying the devolution code.
	DispatchSolicitObject DispatchKind = "SOLICIT_OBJECT"

	// DispatchAutomaticSolicitObject informs a queued applicant that a
	// cancelled claim cascaded to them, carrying their new code.
	DispatchAutomaticSolicitObject DispatchKind = "AUTOMATIC_SOLICIT_OBJECT"

	// DispatchNotification informs a want-notification owner that a
	// matching object was registered.
	DispatchNotification DispatchKind = "NOTIFICATION"
)

// Dispatcher delivers outbound emails fire-and-forget. Send never blocks
// the caller and never reports delivery failure; the core's correctness
// must not depend on a message arriving.
type Dispatcher interface {
	Send(kind DispatchKind, email string, vars map[string]string)
}
