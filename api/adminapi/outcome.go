package adminapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/brito101/medicaodigitalx/service"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	msgCreated          = "Cadastro realizado!"
	msgCreateFailed     = "Erro ao cadastrar!"
	msgDeleted          = "Exclusão realizada!"
	msgDeleteFailed     = "Erro ao excluir!"
	msgNoSelection      = "Selecione ao menos uma linha!"
	msgBatchDeleted     = "Contas das Concessionárias excluídas!"
	msgUnauthorized     = "Acesso não autorizado"
	msgNotFound         = "Registro não encontrado"
	msgInvalidReference = "Referência inválida"
	msgConflict         = "O registro foi alterado por outro usuário"
	msgUpdated          = "Atualização realizada!"
	msgUpdateFailed     = "Erro ao atualizar!"
	msgLoadFailed       = "Erro ao carregar!"
	msgBadRequest       = "Requisição inválida"
)

// Outcome is the flash style result of a mutating request.
type Outcome struct {
	Status   string            `json:"status"`
	Message  string            `json:"message"`
	Redirect string            `json:"redirect,omitempty"`
	Input    any               `json:"input,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Data     any               `json:"data,omitempty"`
}

// Page is the payload of a page request; View names the template that
// renders Data.
type Page struct {
	View string `json:"view"`
	Data any    `json:"data"`
}

func page(c *fiber.Ctx, view string, data any) error {
	return c.JSON(
		Page{
			View: view,
			Data: data,
		},
	)
}

func success(c *fiber.Ctx, status int, message, redirect string, data any) error {
	return c.Status(status).JSON(
		Outcome{
			Status:   statusSuccess,
			Message:  message,
			Redirect: redirect,
			Data:     data,
		},
	)
}

// errorStatus maps a service error onto a http status. With hideNotFound
// missing records are reported like missing permissions.
func errorStatus(err error, hideNotFound bool) int {
	switch service.Kind(err) {
	case service.KindUnauthorized:
		return fiber.StatusForbidden
	case service.KindNotFound:
		if hideNotFound {
			return fiber.StatusForbidden
		}
		return fiber.StatusNotFound
	case service.KindInvalidReference, service.KindInvalidInput, service.KindNoSelection:
		return fiber.StatusUnprocessableEntity
	case service.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// failure writes the Outcome for a failed operation. fallback is the
// message for store failures; input is echoed for validation failures so
// the form can be refilled.
func (a *api) failure(c *fiber.Ctx, err error, fallback, redirect string, input any) error {
	status := errorStatus(err, a.opts.HideNotFound)
	out := Outcome{
		Status:   statusError,
		Redirect: redirect,
	}
	var invalid service.InvalidInputError
	switch {
	case status == fiber.StatusForbidden:
		out.Message = msgUnauthorized
		out.Redirect = ""
	case status == fiber.StatusNotFound:
		out.Message = msgNotFound
	case errors.As(err, &invalid):
		out.Message = fallback
		out.Errors = invalid.Fields
		out.Input = input
	case service.Kind(err) == service.KindInvalidReference:
		out.Message = msgInvalidReference
		out.Input = input
	case service.Kind(err) == service.KindNoSelection:
		out.Message = msgNoSelection
	case status == fiber.StatusConflict:
		out.Message = msgConflict
		out.Input = input
	default:
		out.Message = fallback
		out.Input = input
	}
	return c.Status(status).JSON(out)
}
