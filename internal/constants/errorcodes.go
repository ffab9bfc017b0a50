// Package constants provides shared constant values used throughout the application.
//
// The errorcodes.go file defines constants related to error handling and messaging.
// User-facing error messages are carefully crafted to be informative without
// revealing sensitive implementation details. In particular, authentication
// failures deliberately share one message so that a caller cannot distinguish an
// unknown email from a wrong password or an unverified account.
package constants

// User-Facing Error Messages define standardized messages that can be safely presented to users.
const (
	// MsgAuthRequired indicates that the user must authenticate to access the resource.
	MsgAuthRequired = "Authentication required"

	// MsgInvalidCredentials is the single message returned for every login
	// failure, regardless of which check actually failed.
	MsgInvalidCredentials = "Invalid email or password"

	// MsgAccessDenied indicates that the user lacks permission for the requested action.
	MsgAccessDenied = "You don't have permission to access this resource"

	// MsgInternalServerError provides a generic server error message.
	MsgInternalServerError = "An internal server error occurred"

	// MsgResourceNotFound indicates the requested resource could not be located.
	MsgResourceNotFound = "The requested resource was not found"

	// MsgMethodNotAllowed indicates the HTTP method is not supported by the endpoint.
	MsgMethodNotAllowed = "Method not allowed"

	// MsgTokenExpired indicates an authentication token is past its expiry.
	MsgTokenExpired = "Token has expired"

	// MsgTokenInvalid indicates an authentication token is malformed or has a bad signature.
	MsgTokenInvalid = "Invalid token"

	// MsgTokenRevoked indicates an authentication token was invalidated before its expiry.
	MsgTokenRevoked = "Token has been revoked"

	// MsgEmailAlreadyRegistered indicates the registration email is already in use.
	MsgEmailAlreadyRegistered = "Email already registered"

	// MsgVerificationTokenInvalid indicates an email verification token is unknown or expired.
	MsgVerificationTokenInvalid = "Invalid or expired verification token"

	// MsgResetTokenInvalid indicates a password reset token is unknown or expired.
	MsgResetTokenInvalid = "Invalid or expired reset token"

	// MsgResetEmailSent is the enumeration-safe response to a password reset
	// request, returned whether or not the email exists.
	MsgResetEmailSent = "If the email exists, a reset link has been sent"

	// MsgEmptyRequestBody indicates a request arrived without a body.
	MsgEmptyRequestBody = "Request body must not be empty"

	// MsgMalformedJSON indicates a request body contained invalid JSON.
	MsgMalformedJSON = "Request body contains malformed JSON"

	// MsgRequestBodyTooLarge indicates a request body exceeded the size limit.
	MsgRequestBodyTooLarge = "Request body must not exceed 1MB"
)

// Revocation Reasons define the standard reason strings recorded on tombstones.
const (
	// RevocationReasonLogout marks a tombstone written during an explicit logout.
	RevocationReasonLogout = "logout"

	// RevocationReasonRefresh marks a tombstone written when a refresh token is rotated.
	RevocationReasonRefresh = "refresh"
)
