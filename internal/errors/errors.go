package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// PathNotFound indicates a guessed file or directory does not exist
	PathNotFound ErrorCode = "PATH_NOT_FOUND"
	// DirectoryNotFound indicates a directory handed to the class indexer is missing
	DirectoryNotFound ErrorCode = "DIRECTORY_NOT_FOUND"
	// AmbiguousConventionMatch indicates several classes share one derived short key
	AmbiguousConventionMatch ErrorCode = "AMBIGUOUS_CONVENTION_MATCH"
	// StaleBinding indicates a cached class reference no longer resolves
	StaleBinding ErrorCode = "STALE_BINDING"
	// CacheStoreUnavailable indicates the cache backend failed or lacks tag support
	CacheStoreUnavailable ErrorCode = "CACHE_STORE_UNAVAILABLE"
	// ManifestInvalid indicates composer.json or PROVIDERS.toml could not be parsed
	ManifestInvalid ErrorCode = "MANIFEST_INVALID"
	// ConfigInvalid indicates a configuration value failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditFile suggests editing a file by hand
	EditFile FixActionType = "edit-file"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Path        string        `json:"path,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// KitError represents a starter kit error with code, message, and suggestions
type KitError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// NewKitError creates a new KitError. When no fixes are given the defaults
// registered for the code are attached.
func NewKitError(code ErrorCode, message string, cause error, suggestedFixes []FixAction) *KitError {
	if suggestedFixes == nil {
		suggestedFixes = GetSuggestedFixes(code)
	}
	return &KitError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes,
	}
}

// Error implements the error interface
func (e *KitError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *KitError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *KitError) WithDetails(details interface{}) *KitError {
	e.Details = details
	return e
}

// HasCode reports whether err, or anything it wraps, is a KitError with code.
func HasCode(err error, code ErrorCode) bool {
	var kerr *KitError
	if !stderrors.As(err, &kerr) {
		return false
	}
	return kerr.Code == code
}

// CodeOf returns the code of the first KitError in err's chain.
func CodeOf(err error) ErrorCode {
	var kerr *KitError
	if stderrors.As(err, &kerr) {
		return kerr.Code
	}
	return ""
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	AmbiguousConventionMatch: {
		{
			Type:        EditFile,
			Description: "Declare the resource to model mapping explicitly on the provider",
		},
	},
	StaleBinding: {
		{
			Type:        RunCommand,
			Command:     "sk cache clear",
			Safe:        true,
			Description: "Clear the discovery cache so the next boot rescans",
		},
	},
	CacheStoreUnavailable: {
		{
			Type:        RunCommand,
			Command:     "sk cache clear",
			Safe:        true,
			Description: "Reset the cache store",
		},
	},
	ManifestInvalid: {
		{
			Type:        EditFile,
			Path:        "composer.json",
			Description: "Fix the JSON syntax of the package manifest",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
