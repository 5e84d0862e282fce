//go:build tools

// Package tools pins code generators used by go:generate directives.
package tools

import (
	_ "github.com/golang/mock/mockgen"
)
