package domain

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "не найдено"
	}
	return fmt.Sprintf("%s: не найдено", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("некорректное поле %s", e.Field)
	default:
		return "ошибка валидации"
	}
}

// ForbiddenError действие не разрешено текущему пользователю
type ForbiddenError struct {
	Msg string
}

func (e ForbiddenError) Error() string {
	if e.Msg == "" {
		return "доступ запрещен"
	}
	return e.Msg
}

// InvalidTransitionError недопустимый переход статуса
type InvalidTransitionError struct {
	Resource string
	From     string
	To       string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: переход %s -> %s недопустим", e.Resource, e.From, e.To)
}

// StorageError непрозрачная ошибка хранилища. Вызывающий не должен
// предполагать, что какое-либо изменение состояния было применено.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("хранилище недоступно (%s)", e.Op)
	}
	return fmt.Sprintf("хранилище недоступно (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage оборачивает ошибку хранилища, не трогая уже типизированные доменные ошибки
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsInvalidTransition(err error) bool {
	var target InvalidTransitionError
	return errors.As(err, &target)
}

func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

// Coded реализуют ошибки других пакетов, которые сами знают свой код ответа
type Coded interface {
	error
	Code() string
}

// IsDomain сообщает, является ли ошибка бизнес-отказом, а не сбоем инфраструктуры
func IsDomain(err error) bool {
	var coded Coded
	return IsNotFound(err) || IsValidation(err) || IsForbidden(err) ||
		IsInvalidTransition(err) || IsStorage(err) || errors.As(err, &coded)
}
