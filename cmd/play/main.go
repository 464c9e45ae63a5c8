package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"nvivas/backend/tictactoe-ai-server/internal/game"
	"nvivas/backend/tictactoe-ai-server/internal/logger"
)

func main() {
	once := pflag.Bool("once", false, "exit after the first finished game")
	logLevel := pflag.String("log-level", "warn", "log level (debug shows every rule the opponent fires)")
	pflag.Parse()

	if err := logger.Initialize(*logLevel, "text"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger.SetOutput(os.Stderr)

	if err := play(os.Stdin, os.Stdout, *once); err != nil {
		logger.Error("Error en la partida", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
}

// play lee jugadas "x y" de in hasta fin de entrada. Cada partida empieza
// con la apertura automática; al terminar se anuncia el resultado y, salvo
// con once, empieza otra.
func play(in io.Reader, out io.Writer, once bool) error {
	c := game.NewController()
	if err := c.StartGame(); err != nil {
		return err
	}
	printBoard(out, c.CurrentState())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Tu jugada (fila columna): ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "q" || line == "quit" {
			return nil
		}

		x, y, err := parseMove(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		reply, err := c.ReceiveExternalMove(x, y)
		if err != nil {
			if errors.Is(err, game.ErrInvalidMove) {
				fmt.Fprintln(out, "Jugada inválida:", err)
				continue
			}
			return err
		}

		snap := c.CurrentState()
		if reply.Cell == game.Automated {
			fmt.Fprintf(out, "Respuesta: %s (%s)\n", reply.Position, reply.Rule)
		}
		printBoard(out, snap)

		if !snap.Outcome.IsDecided() {
			continue
		}

		fmt.Fprintln(out, announce(snap.Outcome))
		if once {
			return nil
		}

		fmt.Fprintln(out, "Nueva partida")
		if err := c.StartGame(); err != nil {
			return err
		}
		printBoard(out, c.CurrentState())
	}
}

func parseMove(line string) (int, int, error) {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("se esperaban dos números, por ejemplo: 0 2")
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("fila inválida %q", fields[0])
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("columna inválida %q", fields[1])
	}
	return x, y, nil
}

func printBoard(out io.Writer, snap game.Snapshot) {
	fmt.Fprintf(out, "\n%s\n\n", snap.Grid)
}

func announce(o game.Outcome) string {
	switch o {
	case game.OpponentWins:
		return "¡Has ganado!"
	case game.AutomatedWins:
		return "Gana la máquina"
	default:
		return "Empate"
	}
}
