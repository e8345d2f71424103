package chat

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxAttachmentBytes is the largest accepted attachment.
const MaxAttachmentBytes = 500_000

// AttachmentExt is the only accepted file extension.
const AttachmentExt = ".txt"

// ValidateAttachment checks a file before it may occupy the attachment slot.
// Content is never truncated; an oversized file is rejected outright.
func ValidateAttachment(name string, content []byte) error {
	if !strings.EqualFold(filepath.Ext(name), AttachmentExt) {
		return &ValidationError{Field: "file", Reason: fmt.Sprintf("only %s files are supported", AttachmentExt)}
	}
	if len(content) == 0 {
		return &ValidationError{Field: "file", Reason: "file is empty"}
	}
	if len(content) > MaxAttachmentBytes {
		return &ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("file is too large (%d bytes, max %d)", len(content), MaxAttachmentBytes),
		}
	}
	if !utf8.Valid(content) {
		return &ValidationError{Field: "file", Reason: "file is not valid UTF-8 text"}
	}
	return nil
}

// attachmentMarker is appended to the visible user message when a file was sent.
func attachmentMarker(name string) string {
	return "[Attachment: " + name + "]"
}
