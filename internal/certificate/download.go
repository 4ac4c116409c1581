package certificate

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ContentType is the media type of rendered certificates.
const ContentType = "application/pdf"

// FileSaver hands bytes to the environment under a file name, e.g. an HTTP attachment.
type FileSaver interface {
	Save(ctx context.Context, filename, contentType string, data []byte) error
}

// TriggerDownload passes a rendered certificate to the save boundary.
func TriggerDownload(ctx context.Context, saver FileSaver, data []byte, filename string) error {
	if saver == nil {
		return &DownloadError{Filename: filename, Err: errors.New("no file saver available")}
	}
	if len(data) == 0 {
		return &DownloadError{Filename: filename, Err: errors.New("certificate is empty")}
	}
	if strings.TrimSpace(filename) == "" {
		return &DownloadError{Filename: filename, Err: errors.New("filename is required")}
	}

	if err := saver.Save(ctx, filename, ContentType, data); err != nil {
		return &DownloadError{Filename: filename, Err: err}
	}

	return nil
}

var (
	whitespaceRun       = regexp.MustCompile(`\s+`)
	unsafeFilenameChars = strings.NewReplacer("/", "-", "\\", "-", "\"", "")
)

// Filename builds the download name Certificate_<name>_<assignment>.pdf.
func Filename(fullName, assignmentTitle string) string {
	name := whitespaceRun.ReplaceAllString(strings.TrimSpace(fullName), "_")
	title := whitespaceRun.ReplaceAllString(strings.TrimSpace(assignmentTitle), "_")
	return unsafeFilenameChars.Replace("Certificate_" + name + "_" + title + ".pdf")
}
