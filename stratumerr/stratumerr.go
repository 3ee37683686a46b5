// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package stratumerr defines the diagnostic error type shared by every
// phase: a stable error code plus a source span, per spec §6/§7.
package stratumerr

import (
	"fmt"

	"github.com/stratumcore/stratum/symbols"
)

// Error codes exposed by this core (spec §6).
const (
	CodeUnstratifiable        = "eval::unstratifiable"
	CodeEmptyStarting         = "algo::empty_starting"
	CodeStartingNodeNotFound  = "algo::starting_node_not_found"
	CodeNodeNotFound          = "NodeNotFound"
	CodeBadExprValue          = "BadExprValue"
	CodeCancelled             = "Cancelled"
)

// Error is a diagnostic with a stable code and a source span.
type Error struct {
	Code    string
	Span    symbols.Span
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes a wrapped cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// Unstratifiable reports that callee closes a poisoned cycle within scc.
func Unstratifiable(calleeName string, scc []string, span symbols.Span) *Error {
	return &Error{
		Code: CodeUnstratifiable,
		Span: span,
		Message: fmt.Sprintf(
			"rule %q is in strongly connected component %v and is reached by a forbidden "+
				"(negated, non-meet-aggregated, or algorithm-crossing) dependency", calleeName, scc),
	}
}

// NodeNotFound reports that a node referenced as a graph input is absent.
func NodeNotFound(missing string, span symbols.Span) *Error {
	return &Error{Code: CodeNodeNotFound, Span: span, Message: fmt.Sprintf("node %q not found", missing)}
}

// BadExprValue reports a non-numeric or NaN value where a number was
// required.
func BadExprValue(value string, span symbols.Span, reason string) *Error {
	return &Error{Code: CodeBadExprValue, Span: span, Message: fmt.Sprintf("%s: %s", value, reason)}
}

// EmptyStarting reports that a provided starting-nodes relation has no rows.
func EmptyStarting(span symbols.Span) *Error {
	return &Error{Code: CodeEmptyStarting, Span: span, Message: "starting nodes relation is empty"}
}

// StartingNodeNotFound reports that a requested starting node has no index
// in the graph.
func StartingNodeNotFound(value string, span symbols.Span) *Error {
	return &Error{Code: CodeStartingNodeNotFound, Span: span, Message: fmt.Sprintf("starting node %s not found", value)}
}

// Cancelled reports that the cooperative cancellation token tripped.
func Cancelled() *Error {
	return &Error{Code: CodeCancelled, Message: "operation cancelled"}
}
