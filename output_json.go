package cssshuffle

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/M3DZIK/css-shuffle/internal/shuffle"
)

// JSONOutput represents the structured JSON export schema
type JSONOutput struct {
	Version   string        `json:"version"`
	Timestamp string        `json:"timestamp"`
	Summary   Summary       `json:"summary"`
	Files     []FileStat    `json:"files"`
	Problems  []JSONProblem `json:"problems"`
}

// JSONProblem represents a single per-file problem
type JSONProblem struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// WriteJSON writes the run result as JSON
func WriteJSON(w io.Writer, result *Result) error {
	output := buildJSONOutput(result)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildJSONOutput converts Result to JSONOutput
func buildJSONOutput(result *Result) JSONOutput {
	files := result.Files
	if files == nil {
		files = []FileStat{}
	}

	problems := make([]JSONProblem, len(result.Problems))
	for i, err := range result.Problems {
		problem := JSONProblem{Kind: shuffle.ErrorKind(err), Message: err.Error()}

		var perr *ParseError
		var ioErr *IOError
		switch {
		case errors.As(err, &perr):
			problem.File = perr.File
			problem.Line = perr.Line
			problem.Column = perr.Column
			problem.Message = perr.Message
		case errors.As(err, &ioErr):
			problem.File = ioErr.File
			problem.Message = ioErr.Op + ": " + ioErr.Err.Error()
		}
		problems[i] = problem
	}

	return JSONOutput{
		Version:   "1.0",
		Timestamp: time.Now().Format(time.RFC3339),
		Summary:   result.Summary(),
		Files:     files,
		Problems:  problems,
	}
}
