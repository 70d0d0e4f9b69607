package errors

// Sentinel errors for the document-store domain.
// Use these with Is() for type-safe error checking.
// Wrap these with Wrap() to add context while preserving the kind.
var (
	// ErrInvalidArgument indicates a malformed or missing required field,
	// a mismatched identifier, or too few comparison targets.
	ErrInvalidArgument = New("invalid argument")

	// ErrNotFound indicates an ID does not resolve in the relevant store.
	ErrNotFound = New("document not found")

	// ErrAlreadyExists indicates a uniqueness violation on a name or an
	// explicitly supplied ID.
	ErrAlreadyExists = New("document already exists")

	// ErrInvalidVariant indicates an unknown or missing discriminator
	// during typed document decoding.
	ErrInvalidVariant = New("invalid variant")

	// ErrPermissionDenied indicates the authorization collaborator
	// rejected access to the project.
	ErrPermissionDenied = New("permission denied")
)

// IsInvalidArgument checks if an error is or wraps ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return err != nil && Is(err, ErrInvalidArgument)
}

// IsNotFound checks if an error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is or wraps ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return err != nil && Is(err, ErrAlreadyExists)
}

// IsInvalidVariant checks if an error is or wraps ErrInvalidVariant.
func IsInvalidVariant(err error) bool {
	return err != nil && Is(err, ErrInvalidVariant)
}

// IsPermissionDenied checks if an error is or wraps ErrPermissionDenied.
func IsPermissionDenied(err error) bool {
	return err != nil && Is(err, ErrPermissionDenied)
}

// NewInvalidArgument creates an invalid-argument error with a formatted message.
func NewInvalidArgument(format string, args ...interface{}) error {
	return Wrap(ErrInvalidArgument, Newf(format, args...).Error())
}

// NewNotFound creates a not-found error with a formatted message.
func NewNotFound(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewAlreadyExists creates an already-exists error with a formatted message.
func NewAlreadyExists(format string, args ...interface{}) error {
	return Wrap(ErrAlreadyExists, Newf(format, args...).Error())
}

// NewInvalidVariant creates an invalid-variant error with a formatted message.
func NewInvalidVariant(format string, args ...interface{}) error {
	return Wrap(ErrInvalidVariant, Newf(format, args...).Error())
}
