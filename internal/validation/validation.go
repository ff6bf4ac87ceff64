package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateRequired valida que un campo no esté vacío
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(fieldName + " is required")
	}
	return nil
}

// ValidateMinLength valida la longitud mínima de un string
func ValidateMinLength(value string, minLength int, fieldName string) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < minLength {
		return fmt.Errorf("%s must be at least %d characters long", fieldName, minLength)
	}
	return nil
}

// ValidateMaxLength valida la longitud máxima de un string
func ValidateMaxLength(value string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(value) > maxLength {
		return fmt.Errorf("%s must be at most %d characters long", fieldName, maxLength)
	}
	return nil
}

// ValidateUUID valida que un string sea un UUID válido
func ValidateUUID(value, fieldName string) error {
	if _, err := uuid.Parse(value); err != nil {
		return errors.New(fieldName + " must be a valid UUID")
	}
	return nil
}

// ValidateEndTime valida que la hora de cierre (epoch ms) esté en el futuro
func ValidateEndTime(endTime *int64, now time.Time) error {
	if endTime == nil {
		return nil
	}
	if !time.UnixMilli(*endTime).After(now) {
		return errors.New("endTime must be in the future")
	}
	return nil
}

func validateText(value, fieldName string, minLength, maxLength int) error {
	if err := ValidateRequired(value, fieldName); err != nil {
		return err
	}
	if err := ValidateMinLength(value, minLength, fieldName); err != nil {
		return err
	}
	return ValidateMaxLength(value, maxLength, fieldName)
}

// RosterValidation contiene validaciones para posiciones, candidatos y votantes
type RosterValidation struct{}

// ValidatePositionName valida el nombre de una posición
func (v RosterValidation) ValidatePositionName(name string) error {
	return validateText(name, "name", 2, 80)
}

// ValidateMaxVotes valida la cantidad de selecciones permitidas
func (v RosterValidation) ValidateMaxVotes(maxVotes int) error {
	if maxVotes < 1 || maxVotes > 50 {
		return errors.New("maxVotes must be between 1 and 50")
	}
	return nil
}

// ValidatePersonName valida el nombre de un candidato o votante
func (v RosterValidation) ValidatePersonName(name string) error {
	return validateText(name, "name", 2, 100)
}

// ValidateClass valida el curso de un votante
func (v RosterValidation) ValidateClass(class string) error {
	return validateText(class, "class", 1, 20)
}

// ValidateRollNo valida el número de lista de un votante
func (v RosterValidation) ValidateRollNo(rollNo string) error {
	return validateText(rollNo, "rollNo", 1, 20)
}

// ValidateManifesto valida el texto de campaña de un candidato
func (v RosterValidation) ValidateManifesto(manifesto string) error {
	return ValidateMaxLength(manifesto, 2000, "manifesto")
}

// ProfileValidation contiene validaciones para perfiles de administración
type ProfileValidation struct{}

// ValidateLoginID valida el identificador de acceso
func (v ProfileValidation) ValidateLoginID(id string) error {
	if err := validateText(id, "id", 3, 50); err != nil {
		return err
	}
	if strings.ContainsAny(id, " \t\n") {
		return errors.New("id must not contain spaces")
	}
	return nil
}

// ValidatePassword valida la contraseña
func (v ProfileValidation) ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	return ValidateMinLength(password, 4, "password")
}

// ValidateName valida el nombre visible
func (v ProfileValidation) ValidateName(name string) error {
	return validateText(name, "name", 2, 100)
}

// WorkspaceValidation contiene validaciones para espacios de trabajo
type WorkspaceValidation struct{}

// ValidateWorkspaceName valida el nombre de un espacio de trabajo
func (v WorkspaceValidation) ValidateWorkspaceName(name string) error {
	return validateText(name, "name", 2, 100)
}

// ValidateElectionName valida el nombre de una elección
func (v WorkspaceValidation) ValidateElectionName(name string) error {
	return validateText(name, "name", 3, 120)
}

// ValidateDescription valida la descripción de una elección
func (v WorkspaceValidation) ValidateDescription(description string) error {
	return ValidateMaxLength(description, 1000, "description")
}
