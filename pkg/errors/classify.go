package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// InvalidFieldError marks a request value that could not be parsed into the
// type a field requires (a malformed uuid, for example).
type InvalidFieldError struct {
	Field string
	Value string
	Cause error
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Value)
}

func (e *InvalidFieldError) Unwrap() error {
	return e.Cause
}

// InvalidField builds the typed cast-failure error for the given field.
func InvalidField(field, value string, cause error) *InvalidFieldError {
	return &InvalidFieldError{Field: field, Value: value, Cause: cause}
}

// TokenExpired builds the operational error for a session token past its
// expiry, carrying the expiry timestamp in the client-facing message.
func TokenExpired(expiredAt time.Time) *Error {
	return New(CodeUnauthenticated,
		fmt.Sprintf("Token Expired. Date Expired: %s. Please Login Again", expiredAt.UTC().Format(time.RFC3339)))
}

// Classify translates heterogeneous internal failures into the fixed
// operational taxonomy. Anything it does not recognize is wrapped as a
// non-operational internal error whose detail never reaches production
// clients.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if typed := As(err); typed != nil {
		return typed
	}

	var fieldErr *InvalidFieldError
	if stdErrors.As(err, &fieldErr) {
		return Wrap(CodeBadRequest, err, fmt.Sprintf("Invalid %s: %s", fieldErr.Field, fieldErr.Value))
	}

	var validationErrs validator.ValidationErrors
	if stdErrors.As(err, &validationErrs) {
		return Wrap(CodeBadRequest, err, fmt.Sprintf("Invalid Input Data: %s", joinValidationErrors(validationErrs)))
	}

	if stdErrors.Is(err, jwt.ErrTokenExpired) {
		return Wrap(CodeUnauthenticated, err, "Token Expired. Please Login Again")
	}
	if stdErrors.Is(err, jwt.ErrTokenMalformed) ||
		stdErrors.Is(err, jwt.ErrTokenSignatureInvalid) ||
		stdErrors.Is(err, jwt.ErrSignatureInvalid) ||
		stdErrors.Is(err, jwt.ErrTokenUnverifiable) ||
		stdErrors.Is(err, jwt.ErrTokenInvalidClaims) {
		return Wrap(CodeUnauthenticated, err, "Invalid token. Please Login again")
	}

	if value, ok := duplicateValue(err); ok {
		msg := "Duplicate field value. Please use another value!"
		if value != "" {
			msg = fmt.Sprintf("Duplicate field value: %s. Please use another value!", value)
		}
		return Wrap(CodeBadRequest, err, msg)
	}

	return Wrap(CodeInternal, err, "unexpected error")
}

func joinValidationErrors(errs validator.ValidationErrors) string {
	messages := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		messages = append(messages, fmt.Sprintf("%s %s", fieldErr.Field(), validationMessage(fieldErr)))
	}
	return strings.Join(messages, ". ")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email"
	case "eqfield":
		return fmt.Sprintf("must match %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return "is invalid"
}

// duplicateValue extracts the offending value from a unique-constraint
// violation. Postgres detail lines look like
// `Key (email)=(leo@example.com) already exists.`.
func duplicateValue(err error) (string, bool) {
	var pgxErr *pgconn.PgError
	if stdErrors.As(err, &pgxErr) && pgxErr.Code == pgerrcode.UniqueViolation {
		return detailValue(pgxErr.Detail), true
	}

	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) && string(pqErr.Code) == pgerrcode.UniqueViolation {
		return detailValue(pqErr.Detail), true
	}

	if stdErrors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}

func detailValue(detail string) string {
	open := strings.Index(detail, ")=(")
	if open < 0 {
		return ""
	}
	rest := detail[open+3:]
	end := strings.Index(rest, ")")
	if end < 0 {
		return ""
	}
	return rest[:end]
}
