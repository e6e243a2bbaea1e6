// Command scorecalc computes final scores, placements and winners for a match
// snapshot without a database. Input is YAML (JSON works too), output is YAML.
//
//	scoresheet:
//	  rounds_score: Aggregate
//	  win_condition: Highest Score
//	participants:
//	  - id: 1
//	    rounds: [{score: 10}, {score: 4}]
//	  - id: 2
//	    team_id: 7
//	    rounds: [{score: 12}, {score: null}]
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Dosada05/boardgame-tracker/scoring"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	inputFlag     = "input"
	outputFlag    = "output"
	lenientFlag   = "lenient"
	stdioCLIName  = "-"
	appVersion    = "v0.1.0"
	outputFileMod = 0o644
)

type snapshot struct {
	Scoresheet   scoring.ScoresheetConfig `yaml:"scoresheet"`
	Participants []scoring.Participant    `yaml:"participants"`
}

type report struct {
	Scoresheet scoring.ScoresheetConfig   `yaml:"scoresheet"`
	Scores     []scoring.FinalScoreResult `yaml:"scores"`
	Placements []scoring.PlacementResult  `yaml:"placements"`
	Winners    []int                      `yaml:"winners"`
}

func readSnapshot(r io.Reader) (*snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var snap snapshot
	if err := dec.Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("snapshot is empty")
		}
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

func calculate(snap *snapshot) report {
	scores := scoring.ComputeFinalScores(snap.Participants, snap.Scoresheet)
	placements := scoring.RankFinalScores(scores, snap.Scoresheet)
	return report{
		Scoresheet: snap.Scoresheet,
		Scores:     scores,
		Placements: placements,
		Winners:    scoring.Winners(placements, snap.Scoresheet),
	}
}

// run is the whole command minus flag parsing.
func run(in io.Reader, out io.Writer, lenient bool) error {
	snap, err := readSnapshot(in)
	if err != nil {
		return err
	}
	if err := snap.Scoresheet.Validate(); err != nil && !lenient {
		return fmt.Errorf("invalid scoresheet (use --%s to compute anyway): %w", lenientFlag, err)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(calculate(snap)); err != nil {
		return fmt.Errorf("encoding to YAML failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding to YAML failed on close: %w", err)
	}
	return nil
}

func main() {
	var (
		inputLocation  string
		outputLocation string
		lenient        bool
	)
	app := &cli.App{
		Name:    "scorecalc",
		Usage:   "Compute final scores and placements of a board game match snapshot",
		Version: appVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        inputFlag,
				Aliases:     []string{"i"},
				Usage:       "Path to the YAML or JSON snapshot, or \"-\" for stdin",
				Value:       stdioCLIName,
				Destination: &inputLocation,
			},
			&cli.StringFlag{
				Name:        outputFlag,
				Aliases:     []string{"o"},
				Usage:       "Where to write the YAML result: a file path or \"-\" for stdout",
				Value:       stdioCLIName,
				Destination: &outputLocation,
			},
			&cli.BoolFlag{
				Name:        lenientFlag,
				Usage:       "Compute even when the scoresheet configuration is invalid",
				Destination: &lenient,
			},
		},
		Action: func(cCtx *cli.Context) error {
			var in io.Reader = os.Stdin
			if inputLocation != stdioCLIName {
				f, err := os.Open(inputLocation)
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			var out io.Writer = os.Stdout
			if outputLocation != stdioCLIName {
				f, err := os.OpenFile(outputLocation, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFileMod)
				if err != nil {
					return fmt.Errorf("failed to open output: %w", err)
				}
				defer f.Close()
				out = f
			}

			return run(in, out, lenient)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
