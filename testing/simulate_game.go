package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/tatianab/survival-run/internal/app"
	"github.com/tatianab/survival-run/internal/config"
	"github.com/tatianab/survival-run/internal/engine"
	"github.com/tatianab/survival-run/internal/models"
)

const fallbackAction = "look around carefully for anything useful"

func main() {
	maxSteps := flag.Int("steps", 20, "stop after this many actions even if the run is not over")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create game: %v", err)
	}
	defer a.Close()
	eng := a.Engine

	fmt.Println("--- Opening ---")
	res, err := eng.StartRun(ctx)
	if err != nil {
		log.Fatalf("Failed to start run: %s (%v)", engine.UserMessage(err), err)
	}
	printTurn(res.State)

	for step := 1; step <= *maxSteps && !res.State.IsTerminal(); step++ {
		action := strings.TrimSpace(res.State.RecommendedAction)
		if action == "" {
			action = fallbackAction
		}
		fmt.Printf("--- Turn %d ---\n", res.State.TurnCount+1)
		fmt.Printf("Player Action: %s\n", action)

		res, err = eng.SubmitAction(ctx, action)
		if err != nil {
			if errors.Is(err, engine.ErrNarrativeFailed) {
				fmt.Printf("Turn failed, retrying: %v\n\n", err)
				continue
			}
			fmt.Printf("Error processing turn: %v\n", err)
			break
		}
		if res.ParseFailed {
			fmt.Println("(model reply held no JSON; defaults applied)")
		}
		printTurn(res.State)
	}

	st := res.State
	switch {
	case st.IsDead:
		fmt.Println("Game Ended: Player died.")
	case st.IsRunComplete:
		fin, err := eng.FinishRun(ctx)
		if err != nil {
			log.Fatalf("Failed to finish run: %v", err)
		}
		fmt.Println("Game Ended: Player survived!")
		fmt.Printf("\nEnding: %s\n", fin.State.Ending)
		for _, ach := range fin.State.Achievements {
			fmt.Printf("Achievement: %s\n", ach)
		}
	default:
		fmt.Println("Stopped before the run ended.")
	}
}

func printTurn(st models.RunState) {
	fmt.Printf("GM: %s\n", st.NarrativeText)
	for _, n := range st.HUDNotes {
		fmt.Printf("Log: %s\n", n)
	}
	names := make([]string, 0, len(st.Inventory))
	for _, it := range st.Inventory {
		names = append(names, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
	}
	fmt.Printf("Stats: HP=%d ATK=%d MP=%d Turn=%d/%d Inventory=%v\n\n",
		st.Stats.HP, st.Stats.ATK, st.Stats.MP, st.TurnCount, st.MaxTurns, names)
}
