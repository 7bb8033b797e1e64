package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// MatchupConfig names the strategy pair of a batch of games.
type MatchupConfig struct {
	ID       int
	Attacker string // encoded strategy
	Defender string // encoded strategy
	Horizon  int
	Discount float64
}

type GameRecord struct {
	ID      int
	Matchup int // MatchupConfig.ID
	Seed    uint64
	GameMetric
}

type RoundRecord struct {
	Game int // GameRecord.ID
	RoundMetric
}

type Writer struct {
	runID   uuid.UUID
	baseDir string
}

// NewWriter creates root/name/<run id> for the files of one run.
func NewWriter(root, name string) (*Writer, error) {
	runID := uuid.New()
	baseDir := filepath.Join(root, name, runID.String())
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		runID:   runID,
		baseDir: baseDir,
	}, nil
}

func (w *Writer) RunID() uuid.UUID {
	return w.runID
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteMatchups(configs []MatchupConfig) error {
	header := []string{"id", "attacker", "defender", "horizon", "discount"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			config.Attacker,
			config.Defender,
			strconv.Itoa(config.Horizon),
			formatFloat(config.Discount),
		})
	}
	return w.write("matchups.csv", header, rows)
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{
		"run", "id", "matchup", "seed", "rounds", "active_targets", "attacker_payoff", "defender_payoff",
		"attacked_nodes", "defended_nodes", "start_time", "end_time", "duration",
	}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			w.runID.String(),
			strconv.Itoa(record.ID),
			strconv.Itoa(record.Matchup),
			strconv.FormatUint(record.Seed, 10),
			strconv.Itoa(record.Rounds),
			strconv.Itoa(record.ActiveTargets),
			formatFloat(record.AttackerPayoff),
			formatFloat(record.DefenderPayoff),
			strconv.Itoa(record.AttackedNodes),
			strconv.Itoa(record.DefendedNodes),
			record.StartTime.Format(time.RFC3339Nano),
			record.EndTime.Format(time.RFC3339Nano),
			record.Duration.String(),
		})
	}
	return w.write("game_records.csv", header, rows)
}

func (w *Writer) WriteRoundRecords(records []RoundRecord) error {
	header := []string{"game", "round", "attacked", "defended", "active_nodes", "attacker_payoff", "defender_payoff"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Round),
			strconv.Itoa(record.Attacked),
			strconv.Itoa(record.Defended),
			strconv.Itoa(record.ActiveNodes),
			formatFloat(record.AttackerPayoff),
			formatFloat(record.DefenderPayoff),
		})
	}
	return w.write("round_records.csv", header, rows)
}

func (w *Writer) write(file string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, file)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", file, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", file, err)
	}
	err = writer.WriteAll(rows)
	if err != nil {
		return fmt.Errorf("failed to write %s rows: %w", file, err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
