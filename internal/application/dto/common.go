// Package dto define los cuerpos JSON de la API de emisión y su mapeo al
// modelo de dominio. La validación sintáctica (tags) vive aquí; los
// invariantes de montos los verifica el dominio.
package dto

import "github.com/go-playground/validator/v10"

// validate instancia compartida del validador de structs.
var validate = validator.New()

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
