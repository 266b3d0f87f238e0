package model

type ImportFormat string

const (
	ImportFormatStandard ImportFormat = "standard"
	ImportFormatShop     ImportFormat = "shop"
)

// ImportResult is the summary returned for one CSV upload.
type ImportResult struct {
	Success    int          `json:"success"`
	Errors     int          `json:"errors"`
	Duplicates int          `json:"duplicates"`
	Format     ImportFormat `json:"format"`
	Message    string       `json:"message"`
	Details    []string     `json:"details,omitempty"`
}
