package core

// ValidateAddress validates an event bus address
func ValidateAddress(address string) error {
	if address == "" {
		return &Error{Code: "INVALID_ADDRESS", Message: "address cannot be empty"}
	}
	if len(address) > 255 {
		return &Error{Code: "INVALID_ADDRESS", Message: "address too long (max 255 characters)"}
	}
	return nil
}

// ValidateBody validates a message body
func ValidateBody(body interface{}) error {
	if body == nil {
		return &Error{Code: "INVALID_BODY", Message: "body cannot be nil"}
	}
	return nil
}

// ValidateVerticle validates a verticle before deployment
func ValidateVerticle(verticle Verticle) error {
	if verticle == nil {
		return &Error{Code: "INVALID_VERTICLE", Message: "verticle cannot be nil"}
	}
	return nil
}
