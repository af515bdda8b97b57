package service

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrContractInUse    = errors.New("contract has applications")
	// ErrDuplicateDocumentNumber: номер документа обязан быть уникален в
	// пределах владельца — иначе удаление по номеру неоднозначно.
	ErrDuplicateDocumentNumber = errors.New("document number already used for this owner")
	// ErrAmbiguousDeletion — дефект данных: инвариант уникальности номера
	// нарушен раньше, при создании; удаление останавливается.
	ErrAmbiguousDeletion = errors.New("ambiguous deletion: duplicate document number")
	ErrUploadFailed      = errors.New("upload failed")
)
