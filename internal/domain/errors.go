package domain

import (
	"errors"
	"fmt"
)

// InvalidRollError - количество кегель вне диапазона или больше, чем осталось во фрейме
type InvalidRollError struct {
	Pins      int
	Remaining int
}

func (e *InvalidRollError) Error() string {
	return fmt.Sprintf("invalid roll: %d pins, %d remaining", e.Pins, e.Remaining)
}

// StateViolationError - сущность в состоянии, которое не принимает команду.
// Обычно это повторная доставка или логическая ошибка
type StateViolationError struct {
	Entity string
	ID     int64
	State  string
	Action string
}

func (e *StateViolationError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s cannot %s in state %q", e.Entity, e.Action, e.State)
	}
	return fmt.Sprintf("%s %d cannot %s in state %q", e.Entity, e.ID, e.Action, e.State)
}

// PreconditionError - партия или игрок не в нужной фазе жизненного цикла
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

// NotFoundError - сущность с таким id не существует
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// ConflictError - запись не сохранена из-за нарушения уникальности
type ConflictError struct {
	Kind   string
	Detail string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Kind, e.Detail)
}

// IsRejection - ошибка означает, что команда отклонена по правилам игры,
// а не из-за сбоя инфраструктуры
func IsRejection(err error) bool {
	var (
		invalid   *InvalidRollError
		violation *StateViolationError
		pre       *PreconditionError
		nf        *NotFoundError
		conflict  *ConflictError
	)
	return errors.As(err, &invalid) ||
		errors.As(err, &violation) ||
		errors.As(err, &pre) ||
		errors.As(err, &nf) ||
		errors.As(err, &conflict)
}
