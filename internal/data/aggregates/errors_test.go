package aggregates

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
)

func TestMapErrorNil(t *testing.T) {
	if got := MapError("op", nil); got != nil {
		t.Fatalf("nil error should map to nil, got %v", got)
	}
}

func TestMapErrorPassesDomainErrorsThrough(t *testing.T) {
	in := domain.NewError(domain.CodeOutOfRange, "op", "too big", nil)
	if got := MapError("other", in); got != in {
		t.Fatalf("domain errors must pass through unchanged")
	}
}

func TestMapErrorRecordNotFound(t *testing.T) {
	got := MapError("op", gorm.ErrRecordNotFound)
	if !domain.IsCode(got, domain.CodeNotFound) {
		t.Fatalf("want CodeNotFound, got %v", got)
	}
}

func TestMapErrorUniqueViolationOnUniquenessKey(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_submission_header_uniqueness_key"}
	got := MapError("op", pgErr)
	if !domain.IsCode(got, domain.CodeDuplicateSubmission) {
		t.Fatalf("uniqueness_key violation should map to CodeDuplicateSubmission, got %v", got)
	}
}

func TestMapErrorUniqueViolationElsewhere(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_reported_value"}
	got := MapError("op", pgErr)
	if !domain.IsCode(got, domain.CodeConflict) {
		t.Fatalf("other unique violations should map to CodeConflict, got %v", got)
	}
}

func TestMapErrorForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503"}
	got := MapError("op", pgErr)
	if !domain.IsCode(got, domain.CodePreconditionFailed) {
		t.Fatalf("fk violation should map to CodePreconditionFailed, got %v", got)
	}
}

func TestMapErrorSerializationFailure(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		got := MapError("op", &pgconn.PgError{Code: code})
		if !domain.IsCode(got, domain.CodeRetryable) {
			t.Errorf("pg code %s should map to CodeRetryable, got %v", code, got)
		}
	}
	if got := MapError("op", context.DeadlineExceeded); !domain.IsCode(got, domain.CodeRetryable) {
		t.Fatalf("deadline exceeded should map to CodeRetryable, got %v", got)
	}
}

func TestMapErrorSQLiteUniqueMessage(t *testing.T) {
	err := errors.New("UNIQUE constraint failed: submission_header.uniqueness_key")
	got := MapError("op", err)
	if !domain.IsCode(got, domain.CodeDuplicateSubmission) {
		t.Fatalf("sqlite uniqueness_key message should map to CodeDuplicateSubmission, got %v", got)
	}
}

func TestMapErrorUnknownFallsBackToInternal(t *testing.T) {
	got := MapError("op", errors.New("boom"))
	if !domain.IsCode(got, domain.CodeInternal) {
		t.Fatalf("unknown errors should map to CodeInternal, got %v", got)
	}
}
