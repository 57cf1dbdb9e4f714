package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/censo/core"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	SessionResponse struct {
		State         string `json:"state"`
		Authenticated bool   `json:"authenticated"`
	}

	SelectSchoolRequest struct {
		INEP string `json:"inep"`
	}

	ClassroomCountRequest struct {
		Count *int `json:"count" validate:"required,max=200"`
	}

	FieldUpdateRequest struct {
		Field string      `json:"field" validate:"required"`
		Value interface{} `json:"value"`
	}

	ModalityRequest struct {
		Modality string `json:"modality" validate:"required,modality"`
		Checked  bool   `json:"checked"`
	}

	SubmitRequest struct {
		SubmittedBy string `json:"submittedBy" validate:"required"`
	}
)

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	r.Username = core.CleanString(r.Username, true /* lower */)
	return validate.Struct(r)
}

func (r *FieldUpdateRequest) Validate(validate *validator.Validate) error {
	r.Field = core.CleanString(r.Field)
	return validate.Struct(r)
}

func (r *ModalityRequest) Validate(validate *validator.Validate) error {
	r.Modality = core.CleanString(r.Modality)
	return validate.Struct(r)
}
