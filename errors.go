package ionmacro

import (
	"errors"
	"fmt"
)

// Common errors used throughout the ionmacro packages
var (
	// ErrCompile is returned for structural errors in a macro definition.
	// Compile errors
	ErrCompile = errors.New("macro compile error")
	// ErrUnknownMacro indicates a macro reference that the table cannot resolve.
	ErrUnknownMacro = errors.New("unknown macro")
	// ErrInvalidExpression indicates a flat expression list with broken ranges or leftover placeholders.
	ErrInvalidExpression = errors.New("invalid expression list")
	// ErrCyclicMacro indicates macros that invoke each other in a cycle.
	ErrCyclicMacro = errors.New("cyclic macro definition")
	// ErrDuplicateMacro indicates a name or address that is already defined in a table.
	ErrDuplicateMacro = errors.New("macro already defined")

	// ErrArity is the parent of every argument-count error.
	// Arity errors
	ErrArity = errors.New("wrong number of arguments")
	// ErrMissingArgument indicates a required parameter without an argument.
	ErrMissingArgument = fmt.Errorf("%w: missing required argument", ErrArity)
	// ErrTooManyArguments indicates raw arguments left over after the last parameter.
	ErrTooManyArguments = fmt.Errorf("%w: too many arguments", ErrArity)

	// ErrArgumentType indicates a system macro received a value of the wrong type.
	// Evaluation errors
	ErrArgumentType = errors.New("invalid argument type")
	// ErrExpansionLimit indicates the expansion step ceiling was exceeded.
	ErrExpansionLimit = errors.New("expansion limit exceeded")

	// ErrProtocol is the parent of evaluator misuse errors.
	// Protocol errors
	ErrProtocol = errors.New("evaluator protocol misuse")
	// ErrNotOnContainer indicates StepIn was called when the current value is not a container.
	ErrNotOnContainer = fmt.Errorf("%w: not positioned on a container", ErrProtocol)
	// ErrNothingToStepOutOf indicates StepOut was called with no container frame open.
	ErrNothingToStepOutOf = fmt.Errorf("%w: nothing to step out of", ErrProtocol)

	// ErrInvalidConfig indicates a configuration value out of range.
	// Config errors
	ErrInvalidConfig = errors.New("invalid configuration")
)
