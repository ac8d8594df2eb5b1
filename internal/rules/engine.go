// Package rules adapts github.com/notnil/chess as the external rules engine.
// Positions cross the boundary as FEN strings; the rest of the system treats
// the engine as an opaque pure function.
package rules

import (
	"fmt"

	"github.com/notnil/chess"

	"gambit/internal/game"
)

// StartingFEN is the standard chess starting position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Engine implements game.Engine.
type Engine struct{}

// New creates the engine. It is stateless and safe for concurrent use.
func New() *Engine {
	return &Engine{}
}

// InitialPosition returns the standard starting position.
func (*Engine) InitialPosition() string {
	return StartingFEN
}

// SideToMove reports whose turn it is in fen.
func (*Engine) SideToMove(fen string) (game.Color, error) {
	pos, err := parse(fen)
	if err != nil {
		return "", err
	}
	if pos.Turn() == chess.White {
		return game.White, nil
	}
	return game.Black, nil
}

// ApplyMove plays the legal move from->to against fen and returns the
// resulting position. When several legal moves match the squares (a pawn
// promotion with no piece specified) the queen promotion is chosen. A move
// matching no legal move yields ErrIllegalMove.
func (*Engine) ApplyMove(fen, from, to string) (string, error) {
	pos, err := parse(fen)
	if err != nil {
		return "", err
	}

	move := matchMove(pos, from, to)
	if move == nil {
		return "", fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}

	next := pos.Update(move)
	return next.String(), nil
}

// matchMove finds the legal move for the square pair, preferring the queen
// promotion when the pair is ambiguous.
func matchMove(pos *chess.Position, from, to string) *chess.Move {
	var fallback *chess.Move
	for _, m := range pos.ValidMoves() {
		if m.S1().String() != from || m.S2().String() != to {
			continue
		}
		switch m.Promo() {
		case chess.NoPieceType, chess.Queen:
			return m
		default:
			if fallback == nil {
				fallback = m
			}
		}
	}
	return fallback
}

func parse(fen string) (*chess.Position, error) {
	var pos chess.Position
	if err := pos.UnmarshalText([]byte(fen)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return &pos, nil
}
