package distribution

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// ErrorKind classifies distribution failures so callers can decide whether a
// retry makes sense.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindState
	KindEligibility
	KindAmount
	KindArithmetic
	KindInvariant
	KindValidation
	KindAuthorization
)

func (k ErrorKind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindEligibility:
		return "eligibility"
	case KindAmount:
		return "amount"
	case KindArithmetic:
		return "arithmetic"
	case KindInvariant:
		return "invariant"
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	default:
		return "unknown"
	}
}

var (
	ErrNilState            = errors.New("distribution: state not configured")
	ErrNoCampaign          = errors.New("distribution: no active campaign")
	ErrCampaignExists      = errors.New("distribution: campaign already exists")
	ErrCampaignNotStarted  = errors.New("distribution: campaign has not started")
	ErrCampaignStarted     = errors.New("distribution: campaign already started")
	ErrCampaignClosed      = errors.New("distribution: campaign closed")
	ErrInvalidAddress      = errors.New("distribution: invalid address")
	ErrBlacklisted         = errors.New("distribution: address blacklisted")
	ErrNoAllocation        = errors.New("distribution: no allocation for address")
	ErrAllocationExists    = errors.New("distribution: allocation already exists")
	ErrZeroAmount          = errors.New("distribution: amount must be positive")
	ErrExceedsClaimable    = errors.New("distribution: amount exceeds claimable")
	ErrNothingToClaim      = errors.New("distribution: nothing to claim")
	ErrInsufficientBalance = errors.New("distribution: insufficient reward balance")
	ErrArithmeticOverflow  = errors.New("distribution: arithmetic overflow")
	ErrInvariantViolation  = errors.New("distribution: invariant violation")
	ErrInvalidCampaign     = errors.New("distribution: invalid campaign")
	ErrUnsupportedSlot     = errors.New("distribution: unsupported distribution slot")
	ErrUnauthorized        = errors.New("distribution: unauthorized")
)

var sentinelKinds = map[error]ErrorKind{
	ErrNilState:            KindState,
	ErrNoCampaign:          KindState,
	ErrCampaignExists:      KindState,
	ErrCampaignNotStarted:  KindState,
	ErrCampaignStarted:     KindState,
	ErrCampaignClosed:      KindState,
	ErrInvalidAddress:      KindEligibility,
	ErrBlacklisted:         KindEligibility,
	ErrNoAllocation:        KindEligibility,
	ErrAllocationExists:    KindValidation,
	ErrZeroAmount:          KindAmount,
	ErrExceedsClaimable:    KindAmount,
	ErrNothingToClaim:      KindAmount,
	ErrInsufficientBalance: KindAmount,
	ErrArithmeticOverflow:  KindArithmetic,
	ErrInvariantViolation:  KindInvariant,
	ErrInvalidCampaign:     KindValidation,
	ErrUnsupportedSlot:     KindValidation,
	ErrUnauthorized:        KindAuthorization,
}

// Error carries a sentinel reason plus the structured fields relevant to it.
// Only the fields that apply to the failure are populated.
type Error struct {
	Kind      ErrorKind
	Reason    error
	Address   string
	Requested *uint256.Int
	Available *uint256.Int
	Op        string
	Detail    string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.Reason.Error())
	if e.Op != "" {
		fmt.Fprintf(&b, " (op=%s)", e.Op)
	}
	if e.Address != "" {
		fmt.Fprintf(&b, " address=%s", e.Address)
	}
	if e.Requested != nil {
		fmt.Fprintf(&b, " requested=%s", e.Requested.Dec())
	}
	if e.Available != nil {
		fmt.Fprintf(&b, " available=%s", e.Available.Dec())
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Reason
}

func newError(reason error) *Error {
	return &Error{Kind: sentinelKinds[reason], Reason: reason}
}

func (e *Error) withAddress(addr string) *Error {
	e.Address = addr
	return e
}

func (e *Error) withAmounts(requested, available *uint256.Int) *Error {
	if requested != nil {
		e.Requested = new(uint256.Int).Set(requested)
	}
	if available != nil {
		e.Available = new(uint256.Int).Set(available)
	}
	return e
}

func (e *Error) withDetail(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

func arithmeticError(op, detail string) *Error {
	err := newError(ErrArithmeticOverflow)
	err.Op = op
	err.Detail = detail
	return err
}

// KindOf reports the kind of a distribution failure, or KindUnknown when err
// did not originate in this package.
func KindOf(err error) ErrorKind {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind
	}
	for sentinel, kind := range sentinelKinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}
