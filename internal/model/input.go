package model

// Path is a filesystem path. Stdin names the standard input stream.
type Path string

// Stdin is the path that reads standard input.
const Stdin Path = "-"

// Summary is the outcome of parsing one input stream.
type Summary struct {
	Name   Path
	Events []Event
	// Final is the root summary, nil when the stream never completed.
	Final *FinalResults
	// Err is the I/O failure that stopped reading the stream.
	Err error
}

// OK reports whether the stream completed without failures or I/O errors.
func (s Summary) OK() bool {
	return s.Err == nil && s.Final != nil && s.Final.OK
}
