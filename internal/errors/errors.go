package gerr

import "errors"

// Expected, recoverable-by-caller conditions. The API layer maps each to a
// distinguishable response; anything else is an internal failure and rolls
// back the whole operation.
var (
	ErrOfferingNotFound       = errors.New("offering not found")
	ErrOfferingNotOpen        = errors.New("offering is not open for registration")
	ErrDeadlinePassed         = errors.New("registration deadline has passed")
	ErrAlreadyRegistered      = errors.New("member already has a live registration")
	ErrAlreadyWaitlisted      = errors.New("member already has a live waitlist entry")
	ErrRegistrationNotFound   = errors.New("registration not found")
	ErrRegistrationNotPending = errors.New("registration is not awaiting payment")
	ErrCancellationNotAllowed = errors.New("registration cannot be cancelled in its current status")
	ErrEntryNotFound          = errors.New("waitlist entry not found")
	ErrOfferNotActive         = errors.New("waitlist entry has no active offer")
	ErrOfferExpired           = errors.New("waitlist offer has expired")
	ErrNoCapacity             = errors.New("no seat available")
	ErrNotAuthorized          = errors.New("caller does not own this resource")
	ErrCheckoutCreationFailed = errors.New("checkout creation failed, retry checkout")

	ErrMailApiLimitReached = errors.New("mail api limit reached")
)
