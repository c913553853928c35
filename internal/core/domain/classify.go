package domain

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Classify determines the taxonomy kind for a raw error. It matches on
// the structural shape of the error (sentinels, net errors, gRPC status
// codes, then message patterns), never on backend identity.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Kind
	}

	switch {
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrProgramNotFound):
		return KindResource
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return KindExecution
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return KindConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindConnection
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.DeadlineExceeded:
			return KindTimeout
		case codes.Unavailable:
			return KindConnection
		case codes.NotFound:
			return KindResource
		case codes.InvalidArgument, codes.FailedPrecondition:
			return KindValidation
		case codes.Internal, codes.Aborted:
			return KindExecution
		}
	}

	// Message-pattern fallback for faults that cross process
	// boundaries as plain strings.
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(s, "connection refused") || strings.Contains(s, "connection reset") ||
		strings.Contains(s, "no such host") || strings.Contains(s, "broken pipe"):
		return KindConnection
	case strings.Contains(s, "not found") || strings.Contains(s, "does not exist"):
		return KindResource
	case strings.Contains(s, "invalid") || strings.Contains(s, "malformed") ||
		strings.Contains(s, "missing required"):
		return KindValidation
	}

	return KindUnknown
}

// Recoverable reports whether a failure of the given kind may be
// retried under the given tier. Validation and Configuration are never
// recoverable. Connection and Timeout are recoverable except under the
// Simulator tier: the simulator is deterministic, so a timeout there is
// a caller bug and must surface.
func Recoverable(kind Kind, tier Tier) bool {
	switch kind {
	case KindValidation, KindConfiguration:
		return false
	case KindConnection, KindTimeout:
		return tier != TierSimulator
	default:
		return false
	}
}

// RetryDelay returns the default backoff before retrying under a tier.
func RetryDelay(tier Tier) time.Duration {
	switch tier {
	case TierSimulator:
		return 100 * time.Millisecond
	case TierMock:
		return 750 * time.Millisecond
	default:
		return 7500 * time.Millisecond
	}
}

// ClassifyError normalizes a raw error into a ClassifiedError for the
// given execution tier. An already-classified error keeps its kind and
// context but is re-evaluated for recoverability under the tier.
func ClassifyError(err error, tier Tier) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		clone := *classified
		clone.Tier = tier
		clone.Recoverable = Recoverable(clone.Kind, tier)
		if clone.Recoverable && clone.RetryAfter == 0 {
			clone.RetryAfter = RetryDelay(tier)
		}
		return &clone
	}

	kind := Classify(err)
	ce := &ClassifiedError{
		Kind:        kind,
		Message:     err.Error(),
		Tier:        tier,
		Recoverable: Recoverable(kind, tier),
		cause:       err,
	}
	if ce.Recoverable {
		ce.RetryAfter = RetryDelay(tier)
	}
	return ce
}
