package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case StatusResult:
		o.printStatusResult(v)
	case []GameRecord:
		o.printRecordList(v)
	case GameRecord:
		o.printRecord(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// StatusResult response type
type StatusResult struct {
	Status    string `json:"status"`
	RoomCount int    `json:"roomCount"`
}

// GameRecord response type (matches API)
type GameRecord struct {
	ID        string            `json:"id"`
	RoomCode  string            `json:"roomCode"`
	CreatedAt time.Time         `json:"createdAt"`
	Payload   GameRecordPayload `json:"payload"`
}

// GameRecordPayload is the recorded outcome of one hand
type GameRecordPayload struct {
	GameMode    string     `json:"gameMode"`
	Winner      *WinResult `json:"winner"`
	WallGame    bool       `json:"wallGame"`
	HandsPlayed int        `json:"handsPlayed"`
	Reason      string     `json:"reason,omitempty"`
}

// WinResult response type
type WinResult struct {
	Seat    string `json:"seat"`
	Pattern string `json:"pattern"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}

func (o *Output) printStatusResult(s StatusResult) {
	fmt.Printf("Status: %s\n", s.Status)
	fmt.Printf("Rooms: %d\n", s.RoomCount)
}

func (o *Output) printRecordList(records []GameRecord) {
	if len(records) == 0 {
		fmt.Println("No game records")
		return
	}
	for _, r := range records {
		outcome := "wall game"
		if r.Payload.Winner != nil {
			outcome = fmt.Sprintf("%s won (%s)", r.Payload.Winner.Seat, r.Payload.Winner.Pattern)
		}
		fmt.Printf("%s  %s  room=%s  %s\n",
			r.ID,
			r.CreatedAt.Format(time.RFC3339),
			r.RoomCode,
			outcome,
		)
	}
}

func (o *Output) printRecord(r GameRecord) {
	fmt.Printf("Record: %s\n", r.ID)
	fmt.Printf("Room: %s\n", r.RoomCode)
	fmt.Printf("Played: %s\n", r.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Mode: %s\n", r.Payload.GameMode)
	fmt.Printf("Hands Played: %d\n", r.Payload.HandsPlayed)
	if r.Payload.Winner != nil {
		fmt.Printf("Winner: %s (%s)\n", r.Payload.Winner.Seat, r.Payload.Winner.Pattern)
	} else if r.Payload.WallGame {
		fmt.Println("Outcome: wall game")
	}
	if r.Payload.Reason != "" {
		fmt.Printf("Reason: %s\n", r.Payload.Reason)
	}
}
