package handlers

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrInvalidFormData     = "Invalid form data"
	ErrUnauthorized        = "Unauthorized"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"

	// multipart overhead allowed on top of the audio size limit
	multipartOverhead = 1 << 20
)
