package main

import "errors"

// Sentinel errors for command operations
var (
	ErrInputFileNotExist = errors.New("input file does not exist")
	ErrUnknownFormat     = errors.New("unknown output format")
)
