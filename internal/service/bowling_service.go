package service

import (
	"context"
	"errors"
	"strings"

	"bowling_engine/internal/bus"
	"bowling_engine/internal/domain"
	"bowling_engine/internal/game"
	"bowling_engine/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrNoPlayers     = errors.New("game has no players")
	ErrGameStarted   = errors.New("game already started")
	ErrNoActiveFrame = errors.New("no player is at the lane")
	ErrEmptyName     = errors.New("name must not be empty")
)

// журнал по умолчанию отдаем последними записями
const defaultJournalLimit = 100

// BowlingService - операции над партией, которые приходят снаружи:
// создание, рассадка игроков, старт и броски по публичному токену
type BowlingService struct {
	store     repository.Store
	publisher bus.Publisher
}

func NewBowlingService(store repository.Store, publisher bus.Publisher) *BowlingService {
	return &BowlingService{store: store, publisher: publisher}
}

// PlayerCard - игрок вместе с фреймами для табло
type PlayerCard struct {
	domain.Player
	Frames []domain.Frame `json:"frames"`
}

// Scoreboard - снимок партии целиком
type Scoreboard struct {
	Game    domain.Game  `json:"game"`
	Players []PlayerCard `json:"players"`
}

// создает новую партию с уникальным токеном
func (s *BowlingService) CreateGame(ctx context.Context, name string) (*domain.Game, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	g := &domain.Game{Name: name, Reference: uuid.NewString(), State: domain.GameStateNew}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.SaveGame(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *BowlingService) gameByReference(ctx context.Context, reference string) (*domain.Game, error) {
	g, err := s.store.GetGameByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// сажает игрока на следующую свободную позицию. Только до старта партии
func (s *BowlingService) AddPlayer(ctx context.Context, reference, name string) (*domain.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	ref, err := s.gameByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	var p domain.Player
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		// блокируем партию, чтобы позиции раздавались по одной
		g, err := tx.LoadGame(ctx, ref.ID)
		if err != nil {
			return err
		}
		if g.State != domain.GameStateNew {
			return ErrGameStarted
		}
		players, err := tx.Players(ctx, g.ID)
		if err != nil {
			return err
		}

		p = domain.Player{
			GameID:   g.ID,
			Name:     name,
			State:    domain.PlayerStateWaiting,
			Position: len(players),
		}
		return tx.SavePlayer(ctx, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// StartGame ставит в очередь выборы для новой партии. Саму партию
// переводит в playing роутер
func (s *BowlingService) StartGame(ctx context.Context, reference string) (domain.Command, error) {
	ref, err := s.gameByReference(ctx, reference)
	if err != nil {
		return domain.Command{}, err
	}

	cmd := domain.GameElection(ref.ID)
	cmd.ID = domain.NewCommandID()
	cmd.GameID = ref.ID

	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		g, err := tx.LoadGame(ctx, ref.ID)
		if err != nil {
			return err
		}
		if g.State != domain.GameStateNew {
			return ErrGameStarted
		}
		players, err := tx.Players(ctx, g.ID)
		if err != nil {
			return err
		}
		if len(players) == 0 {
			return ErrNoPlayers
		}
		return tx.Emit(ctx, cmd)
	})
	if err != nil {
		return domain.Command{}, err
	}

	publish(ctx, s.store, s.publisher, []domain.Command{cmd})
	return cmd, nil
}

// Roll ставит в очередь бросок в текущий фрейм игрока у дорожки.
// Количество кегель проверяется сразу, остальное - при обработке
func (s *BowlingService) Roll(ctx context.Context, reference string, pins int) (domain.Command, error) {
	ref, err := s.gameByReference(ctx, reference)
	if err != nil {
		return domain.Command{}, err
	}
	if ref.State != domain.GameStatePlaying {
		return domain.Command{}, &domain.PreconditionError{Reason: "cannot roll while game is not running"}
	}

	frame, err := s.activeFrame(ctx, ref.ID)
	if err != nil {
		return domain.Command{}, err
	}
	if remaining := game.RemainingPins(frame); pins < 0 || pins > remaining {
		return domain.Command{}, &domain.InvalidRollError{Pins: pins, Remaining: remaining}
	}

	cmd := domain.Roll(frame.ID, pins)
	cmd.ID = domain.NewCommandID()
	cmd.GameID = ref.ID

	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.Emit(ctx, cmd)
	})
	if err != nil {
		return domain.Command{}, err
	}

	publish(ctx, s.store, s.publisher, []domain.Command{cmd})
	return cmd, nil
}

// activeFrame ищет игрока в состоянии playing и его открытый фрейм
func (s *BowlingService) activeFrame(ctx context.Context, gameID int64) (domain.Frame, error) {
	players, err := s.store.GetPlayers(ctx, gameID)
	if err != nil {
		return domain.Frame{}, err
	}
	for _, p := range players {
		if p.State != domain.PlayerStatePlaying {
			continue
		}
		frames, err := s.store.GetFrames(ctx, p.ID)
		if err != nil {
			return domain.Frame{}, err
		}
		// фреймы идут по возрастанию раунда, нужен последний открытый
		for i := len(frames) - 1; i >= 0; i-- {
			if frames[i].Open() {
				return frames[i], nil
			}
		}
	}
	return domain.Frame{}, ErrNoActiveFrame
}

// возвращает табло партии
func (s *BowlingService) Scoreboard(ctx context.Context, reference string) (*Scoreboard, error) {
	g, err := s.gameByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	players, err := s.store.GetPlayers(ctx, g.ID)
	if err != nil {
		return nil, err
	}

	board := &Scoreboard{Game: *g, Players: make([]PlayerCard, 0, len(players))}
	for _, p := range players {
		frames, err := s.store.GetFrames(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if frames == nil {
			frames = []domain.Frame{}
		}
		board.Players = append(board.Players, PlayerCard{Player: p, Frames: frames})
	}
	return board, nil
}

// возвращает журнал команд партии, свежие записи первыми
func (s *BowlingService) Journal(ctx context.Context, reference string, limit int) ([]*domain.AuditLog, error) {
	g, err := s.gameByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 1000 {
		limit = defaultJournalLimit
	}
	return s.store.GetAuditLogs(ctx, g.ID, limit)
}
