// Package agent mediates between the operator, the generation backends and the
// local machine.
//
// # Turn loop
//
// Every chat turn follows the same pipeline:
//
//	user input -> @reference injection -> generation (with fallback)
//	  -> reply shown -> directive extraction + risk classification
//	  -> confirmation gate -> executors
//
// The conversation starts with a context turn describing the working
// directory, answered by the model with "Pronto.". User and model turns are
// appended to the history only after a generation succeeds, so a failed call
// leaves the history unchanged.
//
// # Confirmation gate
//
// Nothing proposed by the model runs without an explicit answer from the
// operator. Gate walks each batch through
//
//	Proposed -> AwaitingResponse -> Applied | Rejected
//
// and commit proposals may also loop through Editing back to Proposed. The
// gate itself never executes anything; the agent calls the executors from
// package tools only for Applied batches. File writes are confirmed as one
// batch, and only the first command block of a reply is considered.
//
// # Commit flow
//
// Commit reads the staged diff, runs a security audit through the same
// generation client and, unless the audit reply carries the approval marker,
// requires an explicit override before proposing a commit message. Work items
// prefix the message with "AB#<id> ".
//
// # Pipe mode
//
// Analyze sends data read from standard input in a single one-shot call.
//
// # Subpackages
//
// agent/terminal: the interactive read-eval loop and the stdin Prompter.
package agent
