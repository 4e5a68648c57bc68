// Package apierrors names the error kinds every component reasons about.
// These are kinds, not concrete types the caller must type-switch on:
// callers compare with errors.Is against the sentinel matching their call
// site, or use Kind to pick a logging/retry policy.
package apierrors

import "errors"

// Kind is a coarse classification used for logging and retry policy. It is
// deliberately smaller than the set of things that can go wrong: every
// error built by Wrap carries exactly one Kind.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransientUpstream
	KindPermanentUpstream
	KindRepositoryTransient
	KindRepositoryIntegrity
	KindSubscriberBackpressure
	KindClientCancelled
)

func (k Kind) String() string {
	switch k {
	case KindTransientUpstream:
		return "transient_upstream"
	case KindPermanentUpstream:
		return "permanent_upstream"
	case KindRepositoryTransient:
		return "repository_transient"
	case KindRepositoryIntegrity:
		return "repository_integrity"
	case KindSubscriberBackpressure:
		return "subscriber_backpressure"
	case KindClientCancelled:
		return "client_cancelled"
	default:
		return "unknown"
	}
}

// kindError wraps an underlying error with a Kind, without losing the
// original error for errors.Is/errors.As.
type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.kind.String() + ": " + e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

// Wrap tags err with kind. A nil err returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// KindOf extracts the Kind tagged onto err, or KindUnknown if none was.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

// ErrRepositoryIntegrity is returned by the fixture repository's Upsert
// when a uniqueness violation is observed on apiFixtureID. This must never
// happen under the upsert contract; its presence indicates a bug upstream
// of the repository, not a normal retry condition.
var ErrRepositoryIntegrity = errors.New("repository: integrity violation on apiFixtureID")
