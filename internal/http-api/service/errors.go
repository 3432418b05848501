package service

import "errors"

// Every manager operation fails with exactly one of these kinds. Callers
// branch with errors.Is; details are wrapped on top with fmt.Errorf("%w: ...").
var (
	ErrAuthenticationFailed    = errors.New("authentication failed")
	ErrAuthorizationFailed     = errors.New("authorization failed")
	ErrCheckoutNotAllowed      = errors.New("checkout not allowed")
	ErrRenewalNotAllowed       = errors.New("renewal not allowed")
	ErrBookAlreadyReturned     = errors.New("book already returned")
	ErrFinePaymentNotAllowed   = errors.New("fine payment not allowed")
	ErrFineWaivementNotAllowed = errors.New("fine waivement not allowed")
	ErrHoldChangeNotAllowed    = errors.New("hold change not allowed")
	ErrNotFound                = errors.New("not found")
	ErrInvalidArgument         = errors.New("invalid argument")
)
