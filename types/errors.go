package types

// Error is the failure type surfaced by every engine operation. Code is one
// of the stable error codes below; Transition is the identifier of the
// aborted state transition so callers can correlate with their submission.
type Error struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Transition string      `json:"transition,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors by code so callers can use errors.Is against the
// sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Stable error codes.
const (
	ErrInvalidAmount             = "invalid_amount"
	ErrInvalidIdentity           = "invalid_identity"
	ErrUnauthorized              = "unauthorized"
	ErrInsufficientAuthorization = "insufficient_authorization"
	ErrInsufficientBalance       = "insufficient_balance"
	ErrSlippageExceeded          = "slippage_exceeded"
	ErrForbiddenAsset            = "forbidden_asset"
	ErrTransferFailed            = "transfer_failed"
	ErrAlreadyAdmin              = "already_admin"
	ErrNotAdmin                  = "not_admin"
	ErrNoPendingOwner            = "no_pending_owner"
	ErrInvalidParams             = "invalid_params"
)

// Sentinels for errors.Is checks. Operations return richer *Error values
// carrying message and transition id; these exist only for matching.
var (
	ErrInvalidAmountSentinel             = &Error{Code: ErrInvalidAmount}
	ErrInvalidIdentitySentinel           = &Error{Code: ErrInvalidIdentity}
	ErrUnauthorizedSentinel              = &Error{Code: ErrUnauthorized}
	ErrInsufficientAuthorizationSentinel = &Error{Code: ErrInsufficientAuthorization}
	ErrInsufficientBalanceSentinel       = &Error{Code: ErrInsufficientBalance}
	ErrSlippageExceededSentinel          = &Error{Code: ErrSlippageExceeded}
	ErrForbiddenAssetSentinel            = &Error{Code: ErrForbiddenAsset}
	ErrTransferFailedSentinel            = &Error{Code: ErrTransferFailed}
	ErrAlreadyAdminSentinel              = &Error{Code: ErrAlreadyAdmin}
	ErrNotAdminSentinel                  = &Error{Code: ErrNotAdmin}
	ErrNoPendingOwnerSentinel            = &Error{Code: ErrNoPendingOwner}
)

// NewError builds an Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}
