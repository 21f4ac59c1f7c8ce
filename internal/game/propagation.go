package game

import (
	"bowling_engine/internal/domain"
)

// PendingBonus отбирает более ранние фреймы игрока, которые еще ждут бонус.
// Сам источник исключается, даже если он по ошибке в wait_score
func PendingBonus(source domain.Frame, frames []domain.Frame) []domain.Frame {
	var out []domain.Frame
	for _, f := range frames {
		if f.ID == source.ID {
			continue
		}
		if f.Round < source.Round && f.State == domain.FrameStateWaitScore && f.ScoreWait > 0 {
			out = append(out, f)
		}
	}
	return out
}

// Propagate раздает сбитые кегли всем ожидающим фреймам. Каждый получает
// одно и то же число независимо: страйк может закрыть сразу два фрейма.
// Если хоть одно начисление невозможно, не меняется ничего
func Propagate(source domain.Frame, pins int, frames []domain.Frame) ([]domain.Frame, error) {
	if pins < 0 || pins > domain.PinsPerFrame {
		return nil, &domain.InvalidRollError{Pins: pins, Remaining: domain.PinsPerFrame}
	}

	targets := PendingBonus(source, frames)
	updated := make([]domain.Frame, 0, len(targets))
	for _, f := range targets {
		credited, err := ApplyPropagatedScore(f, pins)
		if err != nil {
			return nil, err
		}
		updated = append(updated, credited)
	}
	return updated, nil
}
