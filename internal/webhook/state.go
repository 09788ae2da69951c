package webhook

type State int

const (
	StateReceived State = iota
	StateVerifiedWithHint
	StateVerifiedWithExtractedTenant
	StateRejected
	StateDispatched
	StateHandled
	StateHandlerFailed
)

var stateNames = map[State]string{
	StateReceived:                    "received",
	StateVerifiedWithHint:            "verified_with_hint",
	StateVerifiedWithExtractedTenant: "verified_with_extracted_tenant",
	StateRejected:                    "rejected",
	StateDispatched:                  "dispatched",
	StateHandled:                     "handled",
	StateHandlerFailed:               "handler_failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
