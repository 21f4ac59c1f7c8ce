package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Тип команды шины
type CommandKind string

const (
	CommandRoll         CommandKind = "roll"
	CommandPropagation  CommandKind = "propagation"
	CommandPlayerSelect CommandKind = "player_select"
	CommandPlayerTurn   CommandKind = "player_turn"
	CommandGameElection CommandKind = "game_election"
)

// Command - сообщение шины. TargetID указывает на фрейм, игрока или партию
// в зависимости от Kind. GameID служит ключом партиции и проставляется роутером
type Command struct {
	ID        string      `json:"id"`
	Kind      CommandKind `json:"kind"`
	GameID    int64       `json:"game_id"`
	TargetID  int64       `json:"target_id"`
	Pins      int         `json:"pins,omitempty"`
	NextRound int         `json:"next_round,omitempty"`
}

func (c Command) String() string {
	switch c.Kind {
	case CommandRoll, CommandPropagation:
		return fmt.Sprintf("%s{frame=%d pins=%d}", c.Kind, c.TargetID, c.Pins)
	case CommandPlayerTurn:
		return fmt.Sprintf("%s{player=%d next_round=%d}", c.Kind, c.TargetID, c.NextRound)
	case CommandPlayerSelect:
		return fmt.Sprintf("%s{player=%d}", c.Kind, c.TargetID)
	default:
		return fmt.Sprintf("%s{game=%d}", c.Kind, c.TargetID)
	}
}

// NewCommandID генерирует id сообщения для дедупликации
func NewCommandID() string {
	return uuid.New().String()
}

func Roll(frameID int64, pins int) Command {
	return Command{Kind: CommandRoll, TargetID: frameID, Pins: pins}
}

func Propagation(frameID int64, pins int) Command {
	return Command{Kind: CommandPropagation, TargetID: frameID, Pins: pins}
}

func PlayerSelect(playerID int64) Command {
	return Command{Kind: CommandPlayerSelect, TargetID: playerID}
}

// PlayerTurn сообщает игроку о конце фрейма. nextRound == 0 - раунды закончились
func PlayerTurn(playerID int64, nextRound int) Command {
	return Command{Kind: CommandPlayerTurn, TargetID: playerID, NextRound: nextRound}
}

func GameElection(gameID int64) Command {
	return Command{Kind: CommandGameElection, TargetID: gameID}
}
