// Package core provides the validation and rule-definition engine for imported sheets.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid rule: The rule is missing required parameters
//	         Action: Fill in every field required by the rule type
//	         Patterns: "invalid rule parameters"
//
//	VAL002 - Row out of range: The edited row does not exist
//	         Action: Reload the sheet and try the edit again
//	         Patterns: "row index out of range"
//
//	VAL003 - Invalid cell value: Cells may only hold text, numbers or booleans
//	         Action: Enter a plain value
//	         Patterns: "invalid cell value"
//
//	VAL004 - Invalid rule set: The rule file could not be read
//	         Action: Export rules again or fix the JSON/YAML syntax
//	         Patterns: "invalid rule set"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Unsupported file type (only .csv, .xlsx and .xls)
//	FILE003 - Malformed file
//	FILE004 - No file selected
//	FILE005 - Empty file
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session not found (expired or deleted)
//	SES002 - Too many open sessions
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - System busy decoding other uploads
//	UPL002 - Request cancelled
//	UPL003 - Request timed out
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Database export is not configured
//	EXP002 - Database export failed
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request body could not be decoded
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
//
// To add a new error pattern:
//  1. Choose the appropriate category and code range
//  2. Add the pattern in the correct position (specific before general)
//  3. Update the package documentation at the top of this file
var errorPatterns = []errorPattern{
	// =========================================================================
	// Validation Errors (VAL001-VAL004)
	// =========================================================================
	{
		pattern: "invalid rule parameters",
		msg: UserMessage{
			Message: "The rule is missing required parameters",
			Action:  "Fill in every field required by the rule type",
			Code:    "VAL001",
		},
	},
	{
		pattern: "row index out of range",
		msg: UserMessage{
			Message: "The edited row does not exist",
			Action:  "Reload the sheet and try the edit again",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid cell value",
		msg: UserMessage{
			Message: "Cells may only hold text, numbers or true/false",
			Action:  "Enter a plain value",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid rule set",
		msg: UserMessage{
			Message: "The rule file could not be read",
			Action:  "Export the rules again or fix the JSON/YAML syntax",
			Code:    "VAL004",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Unsupported file type. Please upload a CSV or XLSX file.",
			Action:  "Save the sheet as .csv or .xlsx",
			Code:    "FILE002",
		},
	},
	{
		pattern: "malformed",
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Check that the file is a valid CSV or XLSX document",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or XLSX file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header row",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Session Errors (SES001-SES002)
	// =========================================================================
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Session not found",
			Action:  "The session may have expired. Please upload the file again",
			Code:    "SES001",
		},
	},
	{
		pattern: "too many open sessions",
		msg: UserMessage{
			Message: "Too many sheets are open",
			Action:  "Close an open sheet or try again later",
			Code:    "SES002",
		},
	},

	// =========================================================================
	// Upload Errors (UPL001-UPL003)
	// =========================================================================
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL003",
		},
	},

	// =========================================================================
	// Export Errors (EXP001-EXP002)
	// =========================================================================
	{
		pattern: "export sink not configured",
		msg: UserMessage{
			Message: "Database export is not configured",
			Action:  "Download the CSV, XLSX or JSON export instead",
			Code:    "EXP001",
		},
	},
	{
		pattern: "database export",
		msg: UserMessage{
			Message: "Database export failed",
			Action:  "Please try again later",
			Code:    "EXP002",
		},
	},

	// =========================================================================
	// Request Errors (REQ001)
	// =========================================================================
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Check the request body and try again",
			Code:    "REQ001",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := errors.New("session not found: 42")
//	msg := MapError(err)
//	// msg.Code == "SES001"
//	// msg.Message == "Session not found"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "Session not found (Code: SES001). The session may have expired. Please upload the file again"
//
// This is the primary function for displaying errors to end users.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and keeps it reachable through Unwrap.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
