package certificate

import "fmt"

// GenerationError reports a fatal failure while building a certificate document.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate certificate: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// DownloadError reports that a rendered certificate could not be handed to the save boundary.
type DownloadError struct {
	Filename string
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to deliver %s: %v", e.Filename, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}
