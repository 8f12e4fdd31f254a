package auth

import "strings"

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Registration is a sign-up request.
type Registration struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// ValidationError carries a user-facing message for a rejected registration.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks r and returns the first problem found, or nil.
func (r Registration) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return &ValidationError{Field: "name", Message: "El nombre es obligatorio"}
	case strings.TrimSpace(r.Email) == "":
		return &ValidationError{Field: "email", Message: "El correo electrónico es obligatorio"}
	case !ValidEmail(strings.TrimSpace(r.Email)):
		return &ValidationError{Field: "email", Message: "El formato del correo electrónico no es válido"}
	case len(r.Password) < MinPasswordLength:
		return &ValidationError{Field: "password", Message: "La contraseña debe tener al menos 6 caracteres"}
	case r.ConfirmPassword != "" && r.ConfirmPassword != r.Password:
		return &ValidationError{Field: "confirmPassword", Message: "Las contraseñas no coinciden"}
	}
	return nil
}

// Profile returns the record stored for a registered user. The password is
// not part of it.
func (r Registration) Profile() map[string]any {
	return map[string]any{
		"name":  strings.TrimSpace(r.Name),
		"email": strings.ToLower(strings.TrimSpace(r.Email)),
		"role":  string(RoleCustomer),
	}
}
