package common

import (
	"encoding/json"
	"io"
	"os"
)

// CIResult is the single JSON document a tool prints in --ci mode.
type CIResult struct {
	Title   string   `json:"title"`
	OK      bool     `json:"ok"`
	Details []string `json:"details,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func NewCIResult(title string, details []string, err error) CIResult {
	res := CIResult{Title: title, OK: err == nil, Details: details}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func (r CIResult) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func PrintCIResult(title string, details []string, err error) {
	_ = NewCIResult(title, details, err).Write(os.Stdout)
}
