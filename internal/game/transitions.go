package game

// таблица переходов: состояние × событие -> новое состояние.
// отсутствие записи означает, что переход запрещен
type transitions[S comparable, E comparable] map[S]map[E]S

func (t transitions[S, E]) next(from S, ev E) (S, bool) {
	to, ok := t[from][ev]
	return to, ok
}
