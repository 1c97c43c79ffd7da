package storage

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// DocumentKind selects which document slot of a submission a key addresses.
type DocumentKind string

const (
	// StudentDocument is the document uploaded by the student.
	StudentDocument DocumentKind = "student"
	// GraderDocument is the feedback document uploaded by the grader.
	GraderDocument DocumentKind = "grader"
)

// DefaultInvalidKeyPattern matches characters the blob backend rejects in keys.
const DefaultInvalidKeyPattern = `[^\w\-~/ .]`

// DefaultKeyReplacement substitutes rejected key characters.
const DefaultKeyReplacement = "_"

// KeyBuilder produces deterministic storage keys for submission documents.
// The same (course, assignment, student, kind) always yields the same key
// modulo the original file extension, so re-uploads overwrite.
type KeyBuilder struct {
	invalid     *regexp.Regexp
	replacement string
}

// NewKeyBuilder compiles the invalid-character pattern. Empty arguments fall
// back to the defaults.
func NewKeyBuilder(invalidPattern, replacement string) (*KeyBuilder, error) {
	if invalidPattern == "" {
		invalidPattern = DefaultInvalidKeyPattern
	}
	if replacement == "" {
		replacement = DefaultKeyReplacement
	}

	invalid, err := regexp.Compile(invalidPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid key character pattern: %w", err)
	}

	return &KeyBuilder{invalid: invalid, replacement: replacement}, nil
}

// SubmissionKey builds the storage key for one submission document:
//
//	{course_id}/{kind}-uploads/{assignment_id}/{username}-{assignment_name}{ext}
//
// The substitution runs over the entire computed key, not just user-controlled
// segments: identifiers from the upstream platform can carry restricted
// characters too.
func (b *KeyBuilder) SubmissionKey(kind DocumentKind, courseExternalID, assignmentExternalID, assignmentName, username, originalFilename string) string {
	key := fmt.Sprintf("%s/%s-uploads/%s/%s-%s%s",
		courseExternalID,
		kind,
		assignmentExternalID,
		username,
		assignmentName,
		filepath.Ext(originalFilename),
	)
	return b.sanitize(key)
}

func (b *KeyBuilder) sanitize(key string) string {
	return b.invalid.ReplaceAllString(key, b.replacement)
}
